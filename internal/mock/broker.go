package mock

import (
	"context"
	"sync"

	"github.com/miladsoleymani/eventbus/core"
)

// PublishedMessage records a message sent through Publish.
type PublishedMessage struct {
	Topic   string
	Message core.Message
}

// Broker is an in-memory core.Broker double. Subscriptions are exact-topic,
// messages are delivered only through Deliver, and Publish just records.
type Broker struct {
	SubscribeErr error
	PublishErr   error

	mu        sync.Mutex
	subs      map[string]core.Handler
	published []PublishedMessage
	done      chan struct{}
	closed    bool
}

// NewBroker returns a Broker with no subscriptions.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]core.Handler),
		done: make(chan struct{}),
	}
}

func (b *Broker) Publish(_ context.Context, topic string, msg core.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.PublishErr != nil:
		return b.PublishErr
	case b.closed:
		return core.ErrBrokerClosed
	}
	b.published = append(b.published, PublishedMessage{Topic: topic, Message: msg})
	return nil
}

// Subscribe registers handler for topic and blocks until ctx is done or the
// broker is closed.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler core.Handler) error {
	b.mu.Lock()
	if err := b.SubscribeErr; err != nil {
		b.mu.Unlock()
		return err
	}
	b.subs[topic] = handler
	b.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-b.done:
	}

	b.mu.Lock()
	delete(b.subs, topic)
	b.mu.Unlock()
	return nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
	return nil
}

// Deliver hands msg to the handler subscribed on topic and returns its error.
// Without a subscription it returns core.ErrNoHandler.
func (b *Broker) Deliver(ctx context.Context, topic string, msg core.Message) error {
	b.mu.Lock()
	h := b.subs[topic]
	b.mu.Unlock()
	if h == nil {
		return core.ErrNoHandler
	}
	return h(ctx, msg)
}

// Subscribed reports whether a subscription for topic is active.
func (b *Broker) Subscribed(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subs[topic] != nil
}

// Published returns a copy of everything sent via Publish.
func (b *Broker) Published() []PublishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]PublishedMessage(nil), b.published...)
}

// IsClosed reports whether Close was called.
func (b *Broker) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
