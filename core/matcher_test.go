package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMatcher(t *testing.T) {
	m := DefaultMatcher{}

	tests := []struct {
		pattern string
		topic   string
		want    bool
	}{
		// Routing keys
		{"data_OrderCreated", "data_OrderCreated", true},
		{"data_OrderCreated", "data_ordercreated", false},
		{"data_OrderCreated", "command_OrderCreated", false},
		{"*", "data_OrderCreated", true},

		// Dotted topics
		{"orders.created", "orders.created", true},
		{"orders.created", "orders.updated", false},
		{"orders.*", "orders.created", true},
		{"orders.*", "orders.us.created", false},
		{"*.created", "payments.created", true},
		{"orders.#", "orders.us.east.created", true},
		{"#", "a.b.c", true},
		{"orders.#.created", "orders.created", true},
		{"orders.#.created", "orders.us.east.created", true},
		{"orders.#.created", "orders.us.updated", false},
		{"orders.*.#", "orders.us.created", true},

		// Edge cases
		{"orders.created", "orders", false},
		{"orders", "orders.created", false},
		{"orders.*", "orders", false},
		{"orders.#", "orders", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"→"+tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.pattern, tt.topic), "Match(%q, %q)", tt.pattern, tt.topic)
		})
	}
}
