package core

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry owns the MessageHandlers known to a router and maps each
// routing key to the handlers that should receive it, in registration order.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byKey  map[string][]*MessageHandler
	logger *zap.Logger
}

// NewRegistry creates an empty Registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		byKey:  make(map[string][]*MessageHandler),
		logger: logger,
	}
}

// Add registers h under its routing key.
// Invalid handlers are rejected with ErrInvalidHandler and a creator may
// hold only one handler per routing key.
func (r *Registry) Add(h *MessageHandler) error {
	if h == nil || !h.IsValid() {
		desc := "<nil>"
		if h != nil {
			desc = h.String()
		}
		r.logger.Warn("rejected invalid message handler", zap.String("handler", desc))
		return fmt.Errorf("%w: %s", ErrInvalidHandler, desc)
	}

	key := h.RoutingKey()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byKey[key] {
		if existing.CreatorID() == h.CreatorID() {
			return fmt.Errorf("%w: creator %q, key %q", ErrDuplicateHandler, h.CreatorID(), key)
		}
	}
	r.byKey[key] = append(r.byKey[key], h)

	r.logger.Debug("registered message handler",
		zap.String("routing_key", key),
		zap.String("creator", h.CreatorID()))
	return nil
}

// Remove drops the handler registered by creatorID under routingKey.
// It reports whether a handler was removed.
func (r *Registry) Remove(creatorID, routingKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	handlers := r.byKey[routingKey]
	for i, h := range handlers {
		if h.CreatorID() != creatorID {
			continue
		}
		r.removeAt(routingKey, i)
		return true
	}
	return false
}

// RemoveCreator drops every handler registered by creatorID and returns how many were removed.
func (r *Registry) RemoveCreator(creatorID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key := range r.byKey {
		kept := r.byKey[key][:0]
		for _, h := range r.byKey[key] {
			if h.CreatorID() == creatorID {
				removed++
				continue
			}
			kept = append(kept, h)
		}
		if len(kept) == 0 {
			delete(r.byKey, key)
		} else {
			r.byKey[key] = kept
		}
	}
	return removed
}

// removeAt must be called with r.mu held.
func (r *Registry) removeAt(key string, i int) {
	handlers := r.byKey[key]
	next := make([]*MessageHandler, 0, len(handlers)-1)
	next = append(next, handlers[:i]...)
	next = append(next, handlers[i+1:]...)
	if len(next) == 0 {
		delete(r.byKey, key)
		return
	}
	r.byKey[key] = next
}

// Handlers returns a snapshot of the handlers bound to routingKey.
func (r *Registry) Handlers(routingKey string) []*MessageHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handlers := r.byKey[routingKey]
	out := make([]*MessageHandler, len(handlers))
	copy(out, handlers)
	return out
}

// Keys returns the routing keys that have at least one handler, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the total number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, handlers := range r.byKey {
		n += len(handlers)
	}
	return n
}
