package core_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/eventbus/core"
	"github.com/miladsoleymani/eventbus/internal/mock"
)

// startRouter runs r.Start in the background and waits until every topic is subscribed.
func startRouter(t *testing.T, r *core.Router, mb *mock.Broker, topics ...string) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Start(ctx) }()

	for _, topic := range topics {
		require.Eventually(t, func() bool { return mb.Subscribed(topic) },
			time.Second, 5*time.Millisecond, "topic %q never subscribed", topic)
	}
	return cancel, errCh
}

func TestRouter_HandleAndStart(t *testing.T) {
	mb := mock.NewBroker()
	r := core.New(mb)

	var called atomic.Bool
	r.Handle("orders.created", func(c core.Context) error {
		called.Store(true)
		return c.Ack()
	})

	cancel, errCh := startRouter(t, r, mb, "orders.created")

	msg := &mock.Message{K: []byte("key1"), V: []byte("value1")}
	require.NoError(t, mb.Deliver(context.Background(), "orders.created", msg))
	assert.True(t, called.Load(), "handler was not called")
	assert.True(t, msg.Acked())

	cancel()
	require.NoError(t, <-errCh)
	assert.True(t, mb.IsClosed(), "broker should be closed after Start returns")
}

func TestRouter_Middleware(t *testing.T) {
	mb := mock.NewBroker()
	r := core.New(mb)

	var order []string

	mw := func(name string) core.MiddlewareFunc {
		return func(next core.HandlerFunc) core.HandlerFunc {
			return func(c core.Context) error {
				order = append(order, name+":before")
				err := next(c)
				order = append(order, name+":after")
				return err
			}
		}
	}

	r.Use(mw("A"))
	r.Use(mw("B"))

	r.Handle("test.topic", func(c core.Context) error {
		order = append(order, "handler")
		return nil
	})

	cancel, errCh := startRouter(t, r, mb, "test.topic")
	defer func() { cancel(); <-errCh }()

	require.NoError(t, mb.Deliver(context.Background(), "test.topic", &mock.Message{}))

	assert.Equal(t, []string{"A:before", "B:before", "handler", "B:after", "A:after"}, order)
}

func TestRouter_RegisterFansOut(t *testing.T) {
	mb := mock.NewBroker()
	r := core.New(mb)

	var mu sync.Mutex
	got := map[string][]byte{}
	record := func(name string) core.Callback {
		return func(_ context.Context, payload []byte) error {
			mu.Lock()
			got[name] = payload
			mu.Unlock()
			return nil
		}
	}

	require.NoError(t, r.Register(core.NewMessageHandler("svc-a", "OrderCreated", record("svc-a"))))
	require.NoError(t, r.Register(core.NewMessageHandler("svc-b", "OrderCreated", record("svc-b"))))
	require.NoError(t, r.Register(core.NewMessageHandler("svc-c", "OrderCreated", record("svc-c"),
		core.WithMessageType(core.MessageTypeCommand))))

	cancel, errCh := startRouter(t, r, mb, "data_OrderCreated", "command_OrderCreated")
	defer func() { cancel(); <-errCh }()

	payload := []byte(`{"order":7}`)
	msg := &mock.Message{V: payload}
	require.NoError(t, mb.Deliver(context.Background(), "data_OrderCreated", msg))

	assert.Equal(t, map[string][]byte{"svc-a": payload, "svc-b": payload}, got)
	assert.True(t, msg.Acked())
}

func TestRouter_DispatchErrorSkipsAck(t *testing.T) {
	mb := mock.NewBroker()
	r := core.New(mb)

	boom := errors.New("boom")
	var secondCalled atomic.Bool
	require.NoError(t, r.Register(core.NewMessageHandler("svc-a", "OrderCreated",
		func(context.Context, []byte) error { return boom })))
	require.NoError(t, r.Register(core.NewMessageHandler("svc-b", "OrderCreated",
		func(context.Context, []byte) error { secondCalled.Store(true); return nil })))

	cancel, errCh := startRouter(t, r, mb, "data_OrderCreated")
	defer func() { cancel(); <-errCh }()

	msg := &mock.Message{V: []byte("x")}
	err := mb.Deliver(context.Background(), "data_OrderCreated", msg)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "svc-a")
	assert.True(t, secondCalled.Load(), "remaining handlers still run")
	assert.False(t, msg.Acked())
}

func TestRouter_UnregisterLeavesNoHandler(t *testing.T) {
	mb := mock.NewBroker()
	r := core.New(mb)
	require.NoError(t, r.Register(core.NewMessageHandler("svc-a", "OrderCreated", noop)))

	cancel, errCh := startRouter(t, r, mb, "data_OrderCreated")
	defer func() { cancel(); <-errCh }()

	assert.True(t, r.Unregister("svc-a", "data_OrderCreated"))
	err := mb.Deliver(context.Background(), "data_OrderCreated", &mock.Message{})
	assert.ErrorIs(t, err, core.ErrNoHandler)
}

func TestRouter_RegisterInvalid(t *testing.T) {
	r := core.New(mock.NewBroker())
	err := r.Register(core.NewMessageHandler("svc-a", "", noop))
	assert.ErrorIs(t, err, core.ErrInvalidHandler)
	assert.Zero(t, r.Registry().Len())
}

func TestRouter_RegisterAfterStart(t *testing.T) {
	mb := mock.NewBroker()
	r := core.New(mb)
	require.NoError(t, r.Register(core.NewMessageHandler("svc-a", "OrderCreated", noop)))

	cancel, errCh := startRouter(t, r, mb, "data_OrderCreated")
	defer func() { cancel(); <-errCh }()

	assert.NoError(t, r.Register(core.NewMessageHandler("svc-b", "OrderCreated", noop)))

	err := r.Register(core.NewMessageHandler("svc-a", "OrderPaid", noop))
	assert.ErrorIs(t, err, core.ErrAlreadyStarted)
	assert.Empty(t, r.Registry().Handlers("data_OrderPaid"))
}

func TestRouter_RouteConflict(t *testing.T) {
	r := core.New(mock.NewBroker())
	r.Handle("data_OrderCreated", func(c core.Context) error { return nil })
	require.NoError(t, r.Register(core.NewMessageHandler("svc-a", "OrderCreated", noop)))

	assert.ErrorIs(t, r.Start(context.Background()), core.ErrRouteConflict)
}

func TestRouter_WithRegistry(t *testing.T) {
	reg := core.NewRegistry(nil)
	require.NoError(t, reg.Add(core.NewMessageHandler("svc-a", "OrderCreated", noop)))

	mb := mock.NewBroker()
	r := core.New(mb, core.WithRegistry(reg))

	cancel, errCh := startRouter(t, r, mb, "data_OrderCreated")
	cancel()
	require.NoError(t, <-errCh)
}

func TestRouter_RegistryAddedBeforeStart(t *testing.T) {
	reg := core.NewRegistry(nil)
	mb := mock.NewBroker()
	r := core.New(mb, core.WithRegistry(reg))

	var called atomic.Bool
	require.NoError(t, r.Registry().Add(core.NewMessageHandler("svc-a", "OrderPaid",
		func(context.Context, []byte) error { called.Store(true); return nil })))

	cancel, errCh := startRouter(t, r, mb, "data_OrderPaid")
	defer func() { cancel(); <-errCh }()

	msg := &mock.Message{V: []byte("x")}
	require.NoError(t, mb.Deliver(context.Background(), "data_OrderPaid", msg))
	assert.True(t, called.Load())
	assert.True(t, msg.Acked())

	// subscribed at Start, so further handlers for the key are accepted
	assert.NoError(t, r.Register(core.NewMessageHandler("svc-b", "OrderPaid", noop)))
}

func TestRouter_Emit(t *testing.T) {
	mb := mock.NewBroker()
	r := core.New(mb)

	require.NoError(t, r.Emit(context.Background(), core.MessageTypeCommand, "ShipOrder", []byte("payload")))

	pubs := mb.Published()
	require.Len(t, pubs, 1)
	assert.Equal(t, "command_ShipOrder", pubs[0].Topic)

	msg := pubs[0].Message
	assert.Equal(t, []byte("payload"), msg.Value())
	assert.Equal(t, "Command", msg.Headers()[core.HeaderMessageType])
	assert.Equal(t, "ShipOrder", msg.Headers()[core.HeaderEventID])
	assert.NotEmpty(t, msg.Headers()[core.HeaderMessageID])
	assert.Equal(t, "ShipOrder", string(msg.Key()), "keyed by event id for partition affinity")
	assert.NotEqual(t, msg.Headers()[core.HeaderMessageID], string(msg.Key()))
}

func TestRouter_EmitInvalid(t *testing.T) {
	r := core.New(mock.NewBroker())
	assert.ErrorIs(t, r.Emit(context.Background(), core.MessageTypeUnknown, "X", nil), core.ErrInvalidEvent)
	assert.ErrorIs(t, r.Emit(context.Background(), core.MessageTypeData, "", nil), core.ErrInvalidEvent)
	assert.ErrorIs(t, r.Emit(context.Background(), core.MessageType(7), "X", nil), core.ErrInvalidEvent)
}

func TestRouter_EmitPublishError(t *testing.T) {
	mb := mock.NewBroker()
	mb.PublishErr = core.ErrBrokerClosed
	r := core.New(mb)

	err := r.Emit(context.Background(), core.MessageTypeData, "OrderCreated", nil)
	assert.ErrorIs(t, err, core.ErrBrokerClosed)
}

func TestRouter_ContextHeaders(t *testing.T) {
	mb := mock.NewBroker()
	r := core.New(mb)

	var gotType core.MessageType
	var gotEvent string
	r.Handle("data_OrderCreated", func(c core.Context) error {
		gotType = c.MessageType()
		gotEvent = c.EventID()
		return nil
	})

	cancel, errCh := startRouter(t, r, mb, "data_OrderCreated")
	defer func() { cancel(); <-errCh }()

	msg := &mock.Message{H: map[string]string{
		core.HeaderMessageType: "Data",
		core.HeaderEventID:     "OrderCreated",
	}}
	require.NoError(t, mb.Deliver(context.Background(), "data_OrderCreated", msg))
	assert.Equal(t, core.MessageTypeData, gotType)
	assert.Equal(t, "OrderCreated", gotEvent)
}

func TestRouter_SubscribeError(t *testing.T) {
	mb := mock.NewBroker()
	mb.SubscribeErr = errors.New("refused")
	r := core.New(mb)
	r.Handle("orders.created", func(c core.Context) error { return nil })

	err := r.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
	assert.True(t, mb.IsClosed())
}

func TestRouter_NilBroker(t *testing.T) {
	r := core.New(nil)
	assert.ErrorIs(t, r.Start(context.Background()), core.ErrNoBroker)
	assert.ErrorIs(t, r.Publish(context.Background(), "t", &mock.Message{}), core.ErrNoBroker)
}

func TestRouter_DoubleStart(t *testing.T) {
	mb := mock.NewBroker()
	r := core.New(mb)
	r.Handle("orders.created", func(c core.Context) error { return nil })

	cancel, errCh := startRouter(t, r, mb, "orders.created")
	defer func() { cancel(); <-errCh }()

	assert.ErrorIs(t, r.Start(context.Background()), core.ErrAlreadyStarted)
}
