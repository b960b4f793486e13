package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Router is the central message routing engine. It provides an Echo-like API
// for registering topic handlers and middleware, and dispatches messages to
// MessageHandlers by routing key.
type Router struct {
	broker      Broker
	binder      Binder
	registry    *Registry
	logger      *zap.Logger
	middlewares []MiddlewareFunc
	routes      map[string]HandlerFunc
	keys        map[string]struct{}
	mu          sync.RWMutex
	started     bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the logger used by the router and its default registry.
func WithLogger(l *zap.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// WithRegistry makes the router dispatch from an existing Registry.
// Routing keys already present in it are subscribed on Start.
func WithRegistry(reg *Registry) RouterOption {
	return func(r *Router) { r.registry = reg }
}

// New creates a Router bound to the given Broker.
// It uses JSONBinder for deserialization.
func New(b Broker, opts ...RouterOption) *Router {
	r := &Router{
		broker: b,
		binder: JSONBinder{},
		logger: zap.NewNop(),
		routes: make(map[string]HandlerFunc),
		keys:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.registry == nil {
		r.registry = NewRegistry(r.logger)
	}
	return r
}

// Registry returns the registry the router dispatches from. Handlers added
// to it directly before Start are subscribed like registered ones. After
// Start, direct additions bypass the ErrAlreadyStarted check: they are only
// delivered if their routing key was already subscribed.
func (r *Router) Registry() *Registry { return r.registry }

// SetBinder replaces the message binder used by Context.Bind().
// Use this to switch to Protobuf, Avro, or any custom format.
func (r *Router) SetBinder(b Binder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.binder = b
}

// Use registers global middleware. Given middleware [A, B], the call order
// is A -> B -> handler.
func (r *Router) Use(m MiddlewareFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, m)
}

// Handle registers a handler for a topic pattern.
//
//	r.Handle("orders.created", func(c eventbus.Context) error {
//	    var order Order
//	    if err := c.Bind(&order); err != nil {
//	        return err
//	    }
//	    return c.Ack()
//	})
func (r *Router) Handle(topic string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[topic] = h
}

// Register adds a MessageHandler. Messages published on its routing key are
// delivered to it together with every other handler sharing the key.
//
// After Start, only handlers for routing keys that are already subscribed
// can be added; anything else returns ErrAlreadyStarted.
func (r *Router) Register(h *MessageHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.registry.Add(h); err != nil {
		return err
	}

	key := h.RoutingKey()
	if _, ok := r.keys[key]; ok {
		return nil
	}
	if r.started {
		r.registry.Remove(h.CreatorID(), key)
		return fmt.Errorf("%w: routing key %q is not subscribed", ErrAlreadyStarted, key)
	}
	r.keys[key] = struct{}{}
	return nil
}

// Unregister removes the handler creatorID registered for routingKey.
// The broker subscription stays open; with no handlers left, messages on
// the key fail with ErrNoHandler.
func (r *Router) Unregister(creatorID, routingKey string) bool {
	return r.registry.Remove(creatorID, routingKey)
}

// Publish sends a message to the given topic through the broker.
func (r *Router) Publish(ctx context.Context, topic string, msg Message) error {
	if r.broker == nil {
		return ErrNoBroker
	}
	return r.broker.Publish(ctx, topic, msg)
}

// Emit publishes payload as an event of the given type. The topic is the
// routing key, so every MessageHandler registered for (t, eventID) receives it.
// The message is keyed by eventID; a fresh uuid goes in x-message-id.
func (r *Router) Emit(ctx context.Context, t MessageType, eventID string, payload []byte) error {
	if !t.Known() || eventID == "" {
		return fmt.Errorf("%w: type=%s event=%q", ErrInvalidEvent, t, eventID)
	}

	id := uuid.NewString()
	msg := NewMessage([]byte(eventID), payload, map[string]string{
		HeaderMessageType: t.String(),
		HeaderEventID:     eventID,
		HeaderMessageID:   id,
	})

	key := RoutingKey(t, eventID)
	if err := r.Publish(ctx, key, msg); err != nil {
		return fmt.Errorf("eventbus: emit %q: %w", key, err)
	}
	return nil
}

// Start subscribes to all registered topic patterns and routing keys and
// begins consuming messages. It blocks until the context is cancelled or an
// error occurs.
func (r *Router) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.broker == nil {
		r.mu.Unlock()
		return ErrNoBroker
	}
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}

	// registry may have been filled directly or shared
	for _, k := range r.registry.Keys() {
		r.keys[k] = struct{}{}
	}

	// Snapshot routes, middleware, and config under lock
	routes := make(map[string]HandlerFunc, len(r.routes)+len(r.keys))
	for k, v := range r.routes {
		routes[k] = v
	}
	for k := range r.keys {
		if _, ok := routes[k]; ok {
			r.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrRouteConflict, k)
		}
		routes[k] = r.dispatch(k)
	}
	r.started = true
	mws := make([]MiddlewareFunc, len(r.middlewares))
	copy(mws, r.middlewares)
	binder := r.binder
	broker := r.broker
	r.mu.Unlock()

	var wg sync.WaitGroup
	errCh := make(chan error, len(routes))

	for pattern, handler := range routes {
		wrapped := applyMiddleware(handler, mws)

		// Bridge from low-level Handler (broker subscription) to Context-based HandlerFunc
		bridgeHandler := func(c context.Context, msg Message) error {
			ec := NewContext(c, msg, pattern, broker, binder)
			return wrapped(ec)
		}

		wg.Add(1)
		go func(p string, h Handler) {
			defer wg.Done()
			r.logger.Debug("subscribing", zap.String("topic", p))
			if err := broker.Subscribe(ctx, p, h); err != nil {
				errCh <- fmt.Errorf("eventbus: subscribe %q: %w", p, err)
			}
		}(pattern, bridgeHandler)
	}

	// Wait for context cancellation or subscription errors
	go func() {
		wg.Wait()
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return broker.Close()
	case err := <-errCh:
		if err != nil {
			r.logger.Error("subscription failed", zap.Error(err))
			return multierr.Append(err, broker.Close())
		}
		// All subscriptions returned without error, wait for context
		<-ctx.Done()
		return broker.Close()
	}
}

// dispatch fans a message out to every MessageHandler bound to key, in
// registration order, handing each the unmodified payload. The message is
// acked only if every callback succeeds.
func (r *Router) dispatch(key string) HandlerFunc {
	return func(c Context) error {
		handlers := r.registry.Handlers(key)
		if len(handlers) == 0 {
			return fmt.Errorf("%w: %q", ErrNoHandler, key)
		}

		var errs error
		payload := c.Value()
		for _, h := range handlers {
			if err := h.Callback()(c.Context(), payload); err != nil {
				r.logger.Warn("message handler failed",
					zap.String("routing_key", key),
					zap.Stringer("handler", h),
					zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", h.CreatorID(), err))
			}
		}
		if errs != nil {
			return fmt.Errorf("eventbus: dispatch %q: %w", key, errs)
		}
		return c.Ack()
	}
}

// applyMiddleware wraps a handler with middleware in reverse order.
// Given middleware [A, B, C], the call order is A -> B -> C -> handler.
func applyMiddleware(h HandlerFunc, mws []MiddlewareFunc) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
