package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Option configures a Broker.
type Option func(*options)

type options struct {
	balancer         kafka.Balancer
	batchSize        int
	async            bool
	autoCreateTopics bool

	minBytes    int
	maxBytes    int
	maxWait     time.Duration
	startOffset int64

	dialer *kafka.Dialer
	logger *zap.Logger
}

// defaults hash on the message key, which Publish fills with the event id,
// so one event id keeps its partition order.
func defaults() options {
	return options{
		balancer:    &kafka.Hash{},
		batchSize:   100,
		minBytes:    1,
		maxBytes:    10e6,
		maxWait:     500 * time.Millisecond,
		startOffset: kafka.LastOffset,
		logger:      zap.NewNop(),
	}
}

func WithBalancer(b kafka.Balancer) Option {
	return func(o *options) { o.balancer = b }
}

func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// WithAsync makes Publish return before the write is acknowledged. Write
// errors are then only visible in the writer's own logs.
func WithAsync(async bool) Option {
	return func(o *options) { o.async = async }
}

// WithAutoCreateTopics lets the first publish on a routing key create its topic.
func WithAutoCreateTopics(enabled bool) Option {
	return func(o *options) { o.autoCreateTopics = enabled }
}

// WithMaxBytes caps a single fetch.
func WithMaxBytes(n int) Option {
	return func(o *options) { o.maxBytes = n }
}

func WithMaxWait(d time.Duration) Option {
	return func(o *options) { o.maxWait = d }
}

// WithStartOffset picks kafka.FirstOffset or kafka.LastOffset for readers
// without a group. Grouped readers resume from committed offsets.
func WithStartOffset(offset int64) Option {
	return func(o *options) { o.startOffset = offset }
}

// WithDialer supplies TLS and SASL settings to readers and the writer.
func WithDialer(d *kafka.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
