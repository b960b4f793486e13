package rabbitmq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"

	"github.com/miladsoleymani/eventbus/broker"
	"github.com/miladsoleymani/eventbus/core"
)

func TestToPublishing(t *testing.T) {
	msg := core.NewMessage([]byte("id-1"), []byte("body"), map[string]string{
		core.HeaderMessageID:   "id-1",
		core.HeaderMessageType: "Data",
		core.HeaderEventID:     "OrderCreated",
	})

	p := toPublishing(msg)
	assert.Equal(t, []byte("body"), p.Body)
	assert.Equal(t, "id-1", p.MessageId)
	assert.Equal(t, "Data", p.Type)
	assert.Equal(t, "OrderCreated", p.Headers[core.HeaderEventID])
	assert.Equal(t, amqp.Persistent, p.DeliveryMode)
}

func TestMessage_KeyAndHeaders(t *testing.T) {
	m := &message{delivery: amqp.Delivery{
		RoutingKey: "data_OrderCreated",
		Headers:    amqp.Table{"attempt": int32(2), core.HeaderEventID: "OrderCreated"},
	}}
	assert.Equal(t, []byte("data_OrderCreated"), m.Key())
	assert.Equal(t, "2", m.Headers()["attempt"])
	assert.Equal(t, "OrderCreated", m.Headers()[core.HeaderEventID])

	m.delivery.MessageId = "id-1"
	assert.Equal(t, []byte("id-1"), m.Key())
}

func TestQueueNameAndRoutingKey(t *testing.T) {
	b := &Broker{opts: defaults()}
	assert.Equal(t, "data_OrderCreated", b.queueName("data_OrderCreated"))
	assert.Equal(t, "data_OrderCreated", b.routingKey("data_OrderCreated"))

	b.opts.group = "billing"
	assert.Equal(t, "data_OrderCreated", b.queueName("data_OrderCreated"), "default exchange routes by queue name")

	b.opts.exchange = "events"
	assert.Equal(t, "billing.data_OrderCreated", b.queueName("data_OrderCreated"))

	b.opts.routingKey = "fixed"
	assert.Equal(t, "fixed", b.routingKey("data_OrderCreated"))
}

func TestOptsFromConfig(t *testing.T) {
	cfg := broker.Config{
		Group: "billing",
		Extra: map[string]any{
			"exchange":        "events",
			"exchange_type":   "topic",
			"prefetch_count":  "32",
			"requeue_on_nack": false,
		},
	}

	o := defaults()
	for _, fn := range optsFromConfig(cfg) {
		fn(&o)
	}
	assert.Equal(t, "events", o.exchange)
	assert.Equal(t, "topic", o.exchangeType)
	assert.Equal(t, 32, o.prefetchCount)
	assert.False(t, o.requeueOnNack)
	assert.Equal(t, "billing", o.group)
}

func TestConsumerTag(t *testing.T) {
	b := &Broker{opts: defaults()}
	assert.Equal(t, "eventbus.data_OrderCreated", b.consumerTag("data_OrderCreated"))

	WithGroup("billing")(&b.opts)
	assert.Equal(t, "billing.data_OrderCreated", b.consumerTag("data_OrderCreated"))
}
