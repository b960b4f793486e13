package memory

import (
	"sync/atomic"

	"github.com/miladsoleymani/eventbus/core"
)

// message is the per-subscriber copy of a published core.Message.
type message struct {
	key     []byte
	value   []byte
	headers map[string]string
	acked   atomic.Bool
	nacked  atomic.Bool
}

func newMessage(src core.Message) *message {
	h := make(map[string]string, len(src.Headers()))
	for k, v := range src.Headers() {
		h[k] = v
	}
	return &message{key: src.Key(), value: src.Value(), headers: h}
}

func (m *message) Key() []byte { return m.key }
func (m *message) Value() []byte { return m.value }
func (m *message) Headers() map[string]string { return m.headers }

// Ack marks the message as processed. There is no redelivery to suppress.
func (m *message) Ack() error {
	m.acked.Store(true)
	return nil
}

// Nack marks the message as failed. Nothing is redelivered.
func (m *message) Nack() error {
	m.nacked.Store(true)
	return nil
}
