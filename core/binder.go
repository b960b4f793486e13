package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Binder deserializes raw message bytes into a Go value.
// Implement this interface for custom serialization formats (Protobuf, Avro, etc.).
type Binder interface {
	Bind(data []byte, v any) error
}

// BinderFunc adapts a plain function to Binder.
type BinderFunc func(data []byte, v any) error

func (f BinderFunc) Bind(data []byte, v any) error { return f(data, v) }

// JSONBinder deserializes JSON message bodies. An empty payload is an error
// rather than a silent zero value.
type JSONBinder struct{}

func (JSONBinder) Bind(data []byte, v any) error {
	if len(data) == 0 {
		return errors.New("json: empty payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}
