package memory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/miladsoleymani/eventbus/broker"
	"github.com/miladsoleymani/eventbus/core"
)

func init() {
	broker.Register("memory", func(cfg broker.Config) (core.Broker, error) {
		return New(WithLogger(cfg.Logger)), nil
	})
}

// Option configures the in-memory broker.
type Option func(*Broker)

// WithMatcher replaces the pattern matcher used to pick subscribers.
func WithMatcher(m core.TopicMatcher) Option {
	return func(b *Broker) { b.matcher = m }
}

// WithLogger sets the logger for handler failures.
func WithLogger(l *zap.Logger) Option {
	return func(b *Broker) {
		if l != nil {
			b.logger = l
		}
	}
}

type subscription struct {
	pattern string
	handler core.Handler
}

// Broker is an in-process core.Broker. Publish synchronously delivers the
// message to every subscription whose pattern matches the topic and returns
// the combined handler errors. It is intended for tests and single-process
// deployments; nothing is persisted.
type Broker struct {
	matcher core.TopicMatcher
	logger  *zap.Logger

	mu     sync.RWMutex
	subs   map[int]subscription
	nextID int
	closed bool
	done   chan struct{}
}

// New creates an in-memory Broker.
func New(opts ...Option) *Broker {
	b := &Broker{
		matcher: core.DefaultMatcher{},
		logger:  zap.NewNop(),
		subs:    make(map[int]subscription),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers msg to all matching subscriptions. Each receives its own
// copy so acks are tracked per subscriber.
func (b *Broker) Publish(ctx context.Context, topic string, msg core.Message) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return core.ErrBrokerClosed
	}
	var targets []subscription
	for _, s := range b.subs {
		if b.matcher.Match(s.pattern, topic) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	var errs error
	for _, s := range targets {
		delivered := newMessage(msg)
		if err := s.handler(ctx, delivered); err != nil {
			b.logger.Warn("handler failed",
				zap.String("pattern", s.pattern),
				zap.String("topic", topic),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("eventbus/memory: deliver %q to %q: %w", topic, s.pattern, err))
		}
	}
	return errs
}

// Subscribe registers handler for pattern and blocks until the context is
// cancelled or the broker is closed.
func (b *Broker) Subscribe(ctx context.Context, pattern string, handler core.Handler) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return core.ErrBrokerClosed
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{pattern: pattern, handler: handler}
	b.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-b.done:
	}

	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
	return nil
}

// Subscriptions returns how many subscriptions are active.
func (b *Broker) Subscriptions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close releases all blocked Subscribe calls. Further calls fail with core.ErrBrokerClosed.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	return nil
}
