package core

import (
	"fmt"
	"strconv"
	"strings"
)

// MessageType classifies the semantic kind of a message on the bus.
// The zero value is MessageTypeUnknown, which is never routable.
type MessageType int

const (
	MessageTypeUnknown MessageType = iota
	MessageTypeData
	MessageTypeCommand
)

var messageTypeNames = map[MessageType]string{
	MessageTypeUnknown: "Unknown",
	MessageTypeData:    "Data",
	MessageTypeCommand: "Command",
}

// Known reports whether t is a routable member of the enumeration, i.e.
// neither MessageTypeUnknown nor a value outside it.
func (t MessageType) Known() bool {
	return t == MessageTypeData || t == MessageTypeCommand
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "MessageType(" + strconv.Itoa(int(t)) + ")"
}

// ParseMessageType resolves a message type name, ignoring case.
// "unknown" is rejected like any other unrecognised name.
func ParseMessageType(s string) (MessageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "data":
		return MessageTypeData, nil
	case "command":
		return MessageTypeCommand, nil
	}
	return MessageTypeUnknown, fmt.Errorf("%w: %q", ErrUnknownMessageType, s)
}

func (t MessageType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *MessageType) UnmarshalText(text []byte) error {
	parsed, err := ParseMessageType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
