package mock

import "sync"

// Message is a simple core.Message implementation for testing.
type Message struct {
	K       []byte
	V       []byte
	H       map[string]string
	AckErr  error
	NackErr error

	mu    sync.Mutex
	acks  int
	nacks int
}

func (m *Message) Key() []byte { return m.K }
func (m *Message) Value() []byte { return m.V }
func (m *Message) Headers() map[string]string { return m.H }

func (m *Message) Ack() error {
	m.mu.Lock()
	m.acks++
	m.mu.Unlock()
	return m.AckErr
}

func (m *Message) Nack() error {
	m.mu.Lock()
	m.nacks++
	m.mu.Unlock()
	return m.NackErr
}

// Acked reports whether Ack was called at least once.
func (m *Message) Acked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acks > 0
}

// Nacked reports whether Nack was called at least once.
func (m *Message) Nacked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nacks > 0
}
