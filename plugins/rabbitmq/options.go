package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Option configures a Broker.
type Option func(*options)

type options struct {
	exchange     string
	exchangeType string
	routingKey   string

	durable    bool
	autoDelete bool
	exclusive  bool

	group         string
	prefetchCount int
	requeueOnNack bool

	logger *zap.Logger
}

// defaults publish on the default exchange, where a routing key names the
// queue directly.
func defaults() options {
	return options{
		exchangeType:  amqp.ExchangeDirect,
		durable:       true,
		prefetchCount: 10,
		requeueOnNack: true,
		logger:        zap.NewNop(),
	}
}

// WithExchange publishes through the named exchange of the given kind
// (direct, fanout, topic or headers) and binds queues to it.
func WithExchange(name, kind string) Option {
	return func(o *options) {
		o.exchange, o.exchangeType = name, kind
	}
}

// WithRoutingKey pins the publish and bind key instead of using the topic.
func WithRoutingKey(key string) Option {
	return func(o *options) { o.routingKey = key }
}

func WithDurable(d bool) Option {
	return func(o *options) { o.durable = d }
}

func WithAutoDelete(d bool) Option {
	return func(o *options) { o.autoDelete = d }
}

// WithPrefetchCount bounds unacked deliveries per subscription.
func WithPrefetchCount(n int) Option {
	return func(o *options) { o.prefetchCount = n }
}

// WithRequeueOnNack decides whether a failed delivery goes back on its queue
// or is dropped (or dead-lettered, if the queue has a DLX).
func WithRequeueOnNack(requeue bool) Option {
	return func(o *options) { o.requeueOnNack = requeue }
}

// WithGroup prefixes queue names when an exchange is set, so each group
// receives its own copy of every message.
func WithGroup(group string) Option {
	return func(o *options) { o.group = group }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
