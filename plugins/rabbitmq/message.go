package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cast"
)

// message adapts an amqp.Delivery to core.Message.
type message struct {
	delivery amqp.Delivery
	requeue  bool
}

// Key returns the AMQP message id, falling back to the routing key.
func (m *message) Key() []byte {
	if m.delivery.MessageId != "" {
		return []byte(m.delivery.MessageId)
	}
	return []byte(m.delivery.RoutingKey)
}

func (m *message) Value() []byte { return m.delivery.Body }

func (m *message) Headers() map[string]string {
	h := make(map[string]string, len(m.delivery.Headers))
	for k, v := range m.delivery.Headers {
		h[k] = cast.ToString(v)
	}
	return h
}

func (m *message) Ack() error {
	if err := m.delivery.Ack(false); err != nil {
		return fmt.Errorf("eventbus/rabbitmq: ack: %w", err)
	}
	return nil
}

// Nack rejects the delivery, requeueing it when WithRequeueOnNack is set.
func (m *message) Nack() error {
	if err := m.delivery.Nack(false, m.requeue); err != nil {
		return fmt.Errorf("eventbus/rabbitmq: nack: %w", err)
	}
	return nil
}
