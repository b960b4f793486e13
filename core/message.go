package core

import "context"

// Headers set by Router.Emit and read back by Context.
const (
	HeaderMessageType = "x-message-type"
	HeaderEventID     = "x-event-id"
	HeaderMessageID   = "x-message-id"

	// HeaderRepublishedFrom is set by Context.Republish.
	HeaderRepublishedFrom = "x-republished-from"
)

// Message is the broker-agnostic message abstraction.
// Implementations are provided by broker plugins.
type Message interface {
	Key() []byte
	Value() []byte
	Headers() map[string]string
	Ack() error
	Nack() error
}

// Handler is the low-level handler used by broker subscriptions.
// Users should prefer HandlerFunc which receives a Context.
type Handler func(ctx context.Context, msg Message) error

// Middleware is the low-level middleware used internally.
// Users should prefer MiddlewareFunc which receives a Context.
type Middleware func(Handler) Handler

// OutgoingMessage is a Message built locally for publishing.
// Ack and Nack are no-ops since nothing was delivered.
type OutgoingMessage struct {
	key     []byte
	value   []byte
	headers map[string]string
}

// NewMessage creates an OutgoingMessage. headers may be nil.
func NewMessage(key, value []byte, headers map[string]string) *OutgoingMessage {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return &OutgoingMessage{key: key, value: value, headers: h}
}

func (m *OutgoingMessage) Key() []byte { return m.key }
func (m *OutgoingMessage) Value() []byte { return m.value }
func (m *OutgoingMessage) Headers() map[string]string { return m.headers }
func (m *OutgoingMessage) Ack() error { return nil }
func (m *OutgoingMessage) Nack() error { return nil }
