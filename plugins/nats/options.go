package nats

import (
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// Option configures a Broker.
type Option func(*options)

type options struct {
	// stream limits, -1 means unlimited
	maxMsgs   int64
	maxBytes  int64
	maxAge    time.Duration
	replicas  int
	retention jetstream.RetentionPolicy
	storage   jetstream.StorageType

	ackWait    time.Duration
	maxDeliver int

	clientName string
	logger     *zap.Logger
}

func defaults() options {
	return options{
		maxMsgs:    -1,
		maxBytes:   -1,
		replicas:   1,
		retention:  jetstream.LimitsPolicy,
		storage:    jetstream.FileStorage,
		ackWait:    30 * time.Second,
		maxDeliver: 5,
		clientName: "eventbus",
		logger:     zap.NewNop(),
	}
}

// WithStreamLimits caps each stream by message count, total bytes and age.
// Zero age keeps messages until the count or size limit is hit.
func WithStreamLimits(maxMsgs, maxBytes int64, maxAge time.Duration) Option {
	return func(o *options) {
		o.maxMsgs, o.maxBytes, o.maxAge = maxMsgs, maxBytes, maxAge
	}
}

func WithReplicas(n int) Option {
	return func(o *options) { o.replicas = n }
}

func WithRetention(r jetstream.RetentionPolicy) Option {
	return func(o *options) { o.retention = r }
}

func WithStorage(s jetstream.StorageType) Option {
	return func(o *options) { o.storage = s }
}

// WithAckWait is how long the server waits for an Ack before redelivering.
func WithAckWait(d time.Duration) Option {
	return func(o *options) { o.ackWait = d }
}

// WithMaxDeliver bounds delivery attempts per message, first one included.
func WithMaxDeliver(n int) Option {
	return func(o *options) { o.maxDeliver = n }
}

// WithClientName sets the connection name shown by the server.
func WithClientName(name string) Option {
	return func(o *options) { o.clientName = name }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
