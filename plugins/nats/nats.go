package nats

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/miladsoleymani/eventbus/broker"
	"github.com/miladsoleymani/eventbus/core"
)

func init() {
	broker.Register("nats", func(cfg broker.Config) (core.Broker, error) {
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("eventbus/nats: at least one broker URL is required")
		}
		return New(strings.Join(cfg.Brokers, ","), cfg.Group, optsFromConfig(cfg)...)
	})
}

// Broker implements core.Broker on NATS JetStream.
//
// Every subscribed subject gets its own stream and a durable consumer named
// after the group, so members of one group share the work. Acks are
// explicit and a failed callback is Nak'd for redelivery, bounded by
// MaxDeliver.
type Broker struct {
	conn  *nats.Conn
	js    jetstream.JetStream
	group string
	opts  options

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	subs   map[string]jetstream.ConsumeContext
}

// New connects to url, a NATS URL or comma separated list of them.
func New(url, group string, fns ...Option) (*Broker, error) {
	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}

	nc, err := nats.Connect(url, nats.Name(opts.clientName))
	if err != nil {
		return nil, fmt.Errorf("eventbus/nats: connect to %q: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("eventbus/nats: init jetstream: %w", err)
	}

	opts.logger.Info("nats broker connected",
		zap.String("url", nc.ConnectedUrlRedacted()),
		zap.String("group", group))

	return &Broker{
		conn:  nc,
		js:    js,
		group: group,
		opts:  opts,
		done:  make(chan struct{}),
		subs:  make(map[string]jetstream.ConsumeContext),
	}, nil
}

// Publish sends msg on subject topic. The x-message-id header doubles as
// the JetStream Nats-Msg-Id so retried emits are deduplicated.
func (b *Broker) Publish(ctx context.Context, topic string, msg core.Message) error {
	if b.isClosed() {
		return core.ErrBrokerClosed
	}

	nm := &nats.Msg{
		Subject: topic,
		Data:    msg.Value(),
		Header:  toHeader(msg.Headers()),
	}
	var popts []jetstream.PublishOpt
	if id := msg.Headers()[core.HeaderMessageID]; id != "" {
		popts = append(popts, jetstream.WithMsgID(id))
	}
	if _, err := b.js.PublishMsg(ctx, nm, popts...); err != nil {
		return fmt.Errorf("eventbus/nats: publish to %q: %w", topic, err)
	}
	return nil
}

// Subscribe ensures the stream and consumer for topic exist and consumes
// until ctx is cancelled or the broker is closed.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler core.Handler) error {
	if b.isClosed() {
		return core.ErrBrokerClosed
	}

	sc := b.streamConfig(topic)
	stream, err := b.js.CreateOrUpdateStream(ctx, sc)
	if err != nil {
		return fmt.Errorf("eventbus/nats: create stream %q: %w", sc.Name, err)
	}

	cfg := b.consumerConfig(sc.Name)
	cons, err := stream.CreateOrUpdateConsumer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("eventbus/nats: create consumer %q: %w", cfg.Durable, err)
	}

	cc, err := cons.Consume(func(jsMsg jetstream.Msg) {
		if err := handler(ctx, &message{msg: jsMsg}); err != nil {
			b.opts.logger.Warn("handler failed",
				zap.String("subject", jsMsg.Subject()),
				zap.String("consumer", cfg.Durable),
				zap.Error(err))
			if err := jsMsg.Nak(); err != nil {
				b.opts.logger.Warn("nak failed", zap.String("subject", jsMsg.Subject()), zap.Error(err))
			}
		}
	})
	if err != nil {
		return fmt.Errorf("eventbus/nats: start consume on %q: %w", cfg.Durable, err)
	}

	b.mu.Lock()
	b.subs[cfg.Durable] = cc
	b.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-b.done:
	}

	b.mu.Lock()
	delete(b.subs, cfg.Durable)
	b.mu.Unlock()
	cc.Stop()
	return nil
}

func (b *Broker) streamConfig(topic string) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:      sanitizeStreamName(topic),
		Subjects:  []string{topic},
		MaxMsgs:   b.opts.maxMsgs,
		MaxBytes:  b.opts.maxBytes,
		MaxAge:    b.opts.maxAge,
		Replicas:  b.opts.replicas,
		Retention: b.opts.retention,
		Storage:   b.opts.storage,
	}
}

func (b *Broker) consumerConfig(stream string) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:    consumerName(b.group, stream),
		AckPolicy:  jetstream.AckExplicitPolicy,
		AckWait:    b.opts.ackWait,
		MaxDeliver: b.opts.maxDeliver,
	}
}

func (b *Broker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Close stops every consumer and drains the connection.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.done)
	for _, cc := range b.subs {
		cc.Stop()
	}
	b.mu.Unlock()

	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return fmt.Errorf("eventbus/nats: drain: %w", err)
	}
	return nil
}

// consumerName returns the durable consumer name for a stream. A group
// shares one consumer per stream so members split the work.
func consumerName(group, streamName string) string {
	if group == "" {
		return "eventbus-" + streamName
	}
	return group + "-" + streamName
}

// sanitizeStreamName turns a subject into a legal stream name.
func sanitizeStreamName(topic string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ':
			return '-'
		}
		return r
	}, topic)
}

func toHeader(h map[string]string) nats.Header {
	headers := nats.Header{}
	for k, v := range h {
		headers.Set(k, v)
	}
	return headers
}

// optsFromConfig maps broker.Config.Extra keys onto Options.
func optsFromConfig(cfg broker.Config) []Option {
	opts := []Option{WithLogger(cfg.Logger)}
	if v, ok := cfg.IntOption("max_deliver"); ok {
		opts = append(opts, WithMaxDeliver(v))
	}
	if v, ok := cfg.IntOption("replicas"); ok {
		opts = append(opts, WithReplicas(v))
	}
	if v, ok := cfg.StringOption("storage"); ok {
		switch v {
		case "memory":
			opts = append(opts, WithStorage(jetstream.MemoryStorage))
		case "file":
			opts = append(opts, WithStorage(jetstream.FileStorage))
		}
	}
	if v, ok := cfg.StringOption("client_name"); ok {
		opts = append(opts, WithClientName(v))
	}
	return opts
}
