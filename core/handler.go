package core

import (
	"context"
	"strings"
)

// Callback processes the raw payload of a delivered message.
// It may block; the caller decides how it is scheduled.
type Callback func(ctx context.Context, payload []byte) error

// MessageHandler describes one subscription: who registered it, which event
// it responds to, which kind of message it accepts and the callback to run.
//
// A MessageHandler is never modified after NewMessageHandler returns, so it
// can be shared between goroutines freely. Validity is not enforced at
// construction; see IsValid.
type MessageHandler struct {
	creatorID   string
	eventID     string
	messageType MessageType
	callback    Callback
}

// HandlerOption customises a MessageHandler at construction.
type HandlerOption func(*MessageHandler)

// WithMessageType sets the message type the handler accepts.
// Handlers built without it accept MessageTypeData.
func WithMessageType(t MessageType) HandlerOption {
	return func(h *MessageHandler) { h.messageType = t }
}

// NewMessageHandler creates a handler descriptor. Inputs are stored as given.
func NewMessageHandler(creatorID, eventID string, cb Callback, opts ...HandlerOption) *MessageHandler {
	h := &MessageHandler{
		creatorID:   creatorID,
		eventID:     eventID,
		messageType: MessageTypeData,
		callback:    cb,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *MessageHandler) CreatorID() string { return h.creatorID }
func (h *MessageHandler) EventID() string { return h.eventID }
func (h *MessageHandler) MessageType() MessageType { return h.messageType }
func (h *MessageHandler) Callback() Callback { return h.callback }

// IsValid reports whether the handler can be registered: both identifiers
// are non-empty, the message type is Data or Command and the callback is
// set. A nil handler is invalid.
func (h *MessageHandler) IsValid() bool {
	return h != nil &&
		h.creatorID != "" &&
		h.eventID != "" &&
		h.messageType.Known() &&
		h.callback != nil
}

// RoutingKey returns the key used to match incoming messages to this handler.
// It is recomputed on every call.
func (h *MessageHandler) RoutingKey() string {
	return RoutingKey(h.messageType, h.eventID)
}

// String returns a diagnostic summary suitable for logs.
func (h *MessageHandler) String() string {
	return "Type: " + h.messageType.String() + "; Event ID; " + h.eventID + "; Creator: " + h.creatorID
}

// RoutingKey joins the lower-cased message type name and the event id with
// an underscore, e.g. (MessageTypeData, "OrderCreated") -> "data_OrderCreated".
// The event id is used verbatim, so its casing must match on both sides.
func RoutingKey(t MessageType, eventID string) string {
	return strings.ToLower(t.String()) + "_" + eventID
}
