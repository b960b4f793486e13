package eventbus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/eventbus"
	"github.com/miladsoleymani/eventbus/core"
	"github.com/miladsoleymani/eventbus/internal/mock"
)

func TestNewMessageHandler(t *testing.T) {
	h := eventbus.NewMessageHandler("svc-a", "OrderCreated", func(context.Context, []byte) error { return nil })
	assert.True(t, h.IsValid())
	assert.Equal(t, "data_OrderCreated", h.RoutingKey())

	cmd := eventbus.NewMessageHandler("", "OrderCreated", nil, eventbus.WithMessageType(eventbus.MessageTypeCommand))
	assert.False(t, cmd.IsValid())
	assert.Equal(t, "command_OrderCreated", cmd.RoutingKey())
}

func TestNew(t *testing.T) {
	reg := core.NewRegistry(nil)
	require.NoError(t, reg.Add(eventbus.NewMessageHandler("svc-a", "OrderCreated", func(context.Context, []byte) error { return nil })))

	r := eventbus.New(mock.NewBroker(), eventbus.WithRegistry(reg), eventbus.WithLogger(nil))
	assert.Same(t, reg, r.Registry())
	assert.Equal(t, []string{"data_OrderCreated"}, r.Registry().Keys())
}
