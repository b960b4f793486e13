package core

import "errors"

var (
	// ErrBrokerClosed is returned when operations are attempted on a closed broker.
	ErrBrokerClosed = errors.New("eventbus: broker is closed")

	// ErrNoHandler is returned when no handler matches the incoming topic.
	ErrNoHandler = errors.New("eventbus: no handler registered for topic")

	// ErrAlreadyStarted is returned when Start is called on a running router,
	// or when a route that needs a new subscription is added after Start.
	ErrAlreadyStarted = errors.New("eventbus: router already started")

	// ErrNoBroker is returned when a router is created without a broker.
	ErrNoBroker = errors.New("eventbus: broker is nil")

	// ErrInvalidHandler is returned when a MessageHandler fails IsValid.
	ErrInvalidHandler = errors.New("eventbus: invalid message handler")

	// ErrDuplicateHandler is returned when a creator registers the same routing key twice.
	ErrDuplicateHandler = errors.New("eventbus: handler already registered")

	// ErrInvalidEvent is returned when emitting with an unknown message type or empty event id.
	ErrInvalidEvent = errors.New("eventbus: invalid event")

	// ErrRouteConflict is returned when a Handle pattern collides with a handler routing key.
	ErrRouteConflict = errors.New("eventbus: route registered twice")

	// ErrUnknownMessageType is returned when a name does not parse as a MessageType.
	ErrUnknownMessageType = errors.New("eventbus: unknown message type")
)
