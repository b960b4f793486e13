// Package eventbus provides the top-level API for the event bus.
// It re-exports core types for convenience, so users can write:
//
//	r := eventbus.New(b)
//	r.Register(eventbus.NewMessageHandler("billing", "OrderCreated", onOrder))
//	r.Start(ctx)
package eventbus

import (
	"go.uber.org/zap"

	"github.com/miladsoleymani/eventbus/core"
)

// Re-export core types at the package level for ergonomic usage.
type (
	Message        = core.Message
	Handler        = core.Handler
	Middleware     = core.Middleware
	Broker         = core.Broker
	Router         = core.Router
	RouterOption   = core.RouterOption
	Context        = core.Context
	HandlerFunc    = core.HandlerFunc
	MiddlewareFunc = core.MiddlewareFunc
	MessageType    = core.MessageType
	MessageHandler = core.MessageHandler
	HandlerOption  = core.HandlerOption
	Callback       = core.Callback
	Registry       = core.Registry
)

const (
	MessageTypeUnknown = core.MessageTypeUnknown
	MessageTypeData    = core.MessageTypeData
	MessageTypeCommand = core.MessageTypeCommand
)

// New creates a new Router bound to the given Broker.
func New(b Broker, opts ...RouterOption) *Router {
	return core.New(b, opts...)
}

// NewMessageHandler creates a handler descriptor; see core.NewMessageHandler.
func NewMessageHandler(creatorID, eventID string, cb Callback, opts ...HandlerOption) *MessageHandler {
	return core.NewMessageHandler(creatorID, eventID, cb, opts...)
}

// WithMessageType selects the message type a handler accepts.
func WithMessageType(t MessageType) HandlerOption {
	return core.WithMessageType(t)
}

// WithLogger sets the router logger; see core.WithLogger.
func WithLogger(l *zap.Logger) RouterOption {
	return core.WithLogger(l)
}

// WithRegistry makes the router dispatch from an existing Registry.
func WithRegistry(reg *Registry) RouterOption {
	return core.WithRegistry(reg)
}
