package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// message adapts a kafka.Message to core.Message.
// It holds a reference to the reader for offset management.
type message struct {
	raw    kafka.Message
	reader *kafka.Reader
	ctx    context.Context
}

func (m *message) Key() []byte { return m.raw.Key }
func (m *message) Value() []byte { return m.raw.Value }

// Headers flattens Kafka headers; for repeated keys the last value wins.
func (m *message) Headers() map[string]string {
	return fromHeaders(m.raw.Headers)
}

// Ack commits the offset for this message.
func (m *message) Ack() error {
	if err := m.reader.CommitMessages(m.ctx, m.raw); err != nil {
		return fmt.Errorf("eventbus/kafka: commit offset %d: %w", m.raw.Offset, err)
	}
	return nil
}

// Nack is a no-op for Kafka. Not committing the offset causes the message
// to be redelivered on the next consumer group rebalance or restart.
func (m *message) Nack() error {
	return nil
}

func fromHeaders(headers []kafka.Header) map[string]string {
	h := make(map[string]string, len(headers))
	for _, kh := range headers {
		h[kh.Key] = string(kh.Value)
	}
	return h
}
