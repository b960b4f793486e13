package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var errNoBinder = errors.New("eventbus: no binder configured")

// Context is what a HandlerFunc receives for one delivered message.
// It carries the message, the topic it arrived on, the broker it can be
// republished through and a small key/value store for middleware.
type Context interface {
	Context() context.Context
	// SetContext lets middleware attach deadlines or values.
	SetContext(ctx context.Context)

	Message() Message
	Topic() string
	Key() []byte
	Value() []byte
	Header(key string) string
	Headers() map[string]string

	// MessageType parses the x-message-type header. Missing or unknown
	// values yield MessageTypeUnknown.
	MessageType() MessageType
	// EventID is the x-event-id header, empty when absent.
	EventID() string

	// Bind decodes Value() with the router's Binder.
	Bind(v any) error

	Ack() error
	Nack() error

	// Republish publishes a copy of the message on topic. The copy keeps
	// key, value and headers and adds x-republished-from.
	Republish(topic string) error

	Set(key string, val any)
	Get(key string) (any, bool)
}

// HandlerFunc handles one message routed by pattern.
//
//	r.Handle("data_OrderCreated", func(c eventbus.Context) error {
//	    var order Order
//	    if err := c.Bind(&order); err != nil {
//	        return err
//	    }
//	    return c.Ack()
//	})
type HandlerFunc func(c Context) error

// MiddlewareFunc decorates a HandlerFunc. See Router.Use for ordering.
type MiddlewareFunc func(HandlerFunc) HandlerFunc

type msgContext struct {
	ctx    context.Context
	msg    Message
	topic  string
	broker Broker
	binder Binder
	store  map[string]any
	mu     sync.RWMutex
}

// NewContext wraps msg received on topic. b and binder may be nil, in which
// case Republish and Bind fail.
func NewContext(ctx context.Context, msg Message, topic string, b Broker, binder Binder) Context {
	return &msgContext{ctx: ctx, msg: msg, topic: topic, broker: b, binder: binder}
}

func (c *msgContext) Context() context.Context { return c.ctx }

func (c *msgContext) SetContext(ctx context.Context) { c.ctx = ctx }

func (c *msgContext) Message() Message { return c.msg }

func (c *msgContext) Topic() string { return c.topic }

func (c *msgContext) Key() []byte { return c.msg.Key() }

func (c *msgContext) Value() []byte { return c.msg.Value() }

func (c *msgContext) Header(key string) string { return c.msg.Headers()[key] }

func (c *msgContext) Headers() map[string]string { return c.msg.Headers() }

func (c *msgContext) MessageType() MessageType {
	t, err := ParseMessageType(c.Header(HeaderMessageType))
	if err != nil {
		return MessageTypeUnknown
	}
	return t
}

func (c *msgContext) EventID() string { return c.Header(HeaderEventID) }

func (c *msgContext) Bind(v any) error {
	if c.binder == nil {
		return errNoBinder
	}
	if err := c.binder.Bind(c.msg.Value(), v); err != nil {
		return fmt.Errorf("eventbus: bind: %w", err)
	}
	return nil
}

func (c *msgContext) Ack() error {
	if err := c.msg.Ack(); err != nil {
		return fmt.Errorf("eventbus: ack: %w", err)
	}
	return nil
}

func (c *msgContext) Nack() error {
	if err := c.msg.Nack(); err != nil {
		return fmt.Errorf("eventbus: nack: %w", err)
	}
	return nil
}

func (c *msgContext) Republish(topic string) error {
	if c.broker == nil {
		return ErrNoBroker
	}
	headers := make(map[string]string, len(c.msg.Headers())+1)
	for k, v := range c.msg.Headers() {
		headers[k] = v
	}
	headers[HeaderRepublishedFrom] = c.topic

	out := NewMessage(c.msg.Key(), c.msg.Value(), headers)
	if err := c.broker.Publish(c.ctx, topic, out); err != nil {
		return fmt.Errorf("eventbus: republish to %q: %w", topic, err)
	}
	return nil
}

func (c *msgContext) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = val
}

func (c *msgContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.store[key]
	return val, ok
}
