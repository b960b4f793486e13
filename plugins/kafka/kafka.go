package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/miladsoleymani/eventbus/broker"
	"github.com/miladsoleymani/eventbus/core"
)

func init() {
	broker.Register("kafka", func(cfg broker.Config) (core.Broker, error) {
		return New(cfg.Brokers, cfg.Group, optsFromConfig(cfg)...)
	})
}

// Broker implements core.Broker on top of segmentio/kafka-go.
//
// Publishing goes through a single shared Writer. Every Subscribe call opens
// its own Reader, closed again when the subscription returns. Offsets are
// committed on Ack only, so a failed callback is redelivered after a
// rebalance or restart.
type Broker struct {
	brokers []string
	group   string
	opts    options
	writer  *kafka.Writer

	mu      sync.Mutex
	readers map[*kafka.Reader]string
	closed  bool
}

// New connects a Broker to the given bootstrap addresses. group is the
// consumer group id; leave it empty to read without offset commits.
func New(brokers []string, group string, fns ...Option) (*Broker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("eventbus/kafka: at least one broker address is required")
	}

	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               opts.balancer,
		BatchSize:              opts.batchSize,
		Async:                  opts.async,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: opts.autoCreateTopics,
	}
	if d := opts.dialer; d != nil {
		w.Transport = &kafka.Transport{TLS: d.TLS, SASL: d.SASLMechanism}
	}

	opts.logger.Info("kafka broker ready",
		zap.Strings("brokers", brokers),
		zap.String("group", group))

	return &Broker{
		brokers: brokers,
		group:   group,
		opts:    opts,
		writer:  w,
		readers: make(map[*kafka.Reader]string),
	}, nil
}

// Publish writes msg to topic. Router.Emit keys messages by event id; a
// message published without a key falls back to its x-event-id header, so
// one event id always lands on one partition.
func (b *Broker) Publish(ctx context.Context, topic string, msg core.Message) error {
	if err := validTopic(topic); err != nil {
		return err
	}
	if b.isClosed() {
		return core.ErrBrokerClosed
	}

	km := kafka.Message{
		Topic:   topic,
		Key:     partitionKey(msg),
		Value:   msg.Value(),
		Headers: toHeaders(msg.Headers()),
	}
	if err := b.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("eventbus/kafka: publish to %q: %w", topic, err)
	}
	return nil
}

// Subscribe reads topic until ctx is cancelled, calling handler for every
// fetched message.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler core.Handler) error {
	if err := validTopic(topic); err != nil {
		return err
	}

	r := kafka.NewReader(b.readerConfig(topic))

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		r.Close()
		return core.ErrBrokerClosed
	}
	b.readers[r] = topic
	b.mu.Unlock()

	defer b.release(r)
	return b.consume(ctx, topic, r, handler)
}

func (b *Broker) readerConfig(topic string) kafka.ReaderConfig {
	cfg := kafka.ReaderConfig{
		Brokers:  b.brokers,
		Topic:    topic,
		GroupID:  b.group,
		MinBytes: b.opts.minBytes,
		MaxBytes: b.opts.maxBytes,
		MaxWait:  b.opts.maxWait,
		Dialer:   b.opts.dialer,
	}
	// StartOffset is only honoured by kafka-go without a group.
	if b.group == "" {
		cfg.StartOffset = b.opts.startOffset
	}
	return cfg
}

func (b *Broker) consume(ctx context.Context, topic string, r *kafka.Reader, handler core.Handler) error {
	for {
		raw, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("eventbus/kafka: fetch %q: %w", topic, err)
		}

		if err := handler(ctx, &message{raw: raw, reader: r, ctx: ctx}); err != nil {
			b.opts.logger.Warn("handler failed",
				zap.String("topic", topic),
				zap.Int("partition", raw.Partition),
				zap.Int64("offset", raw.Offset),
				zap.Error(err))
		}
	}
}

// release closes r unless Close already did.
func (b *Broker) release(r *kafka.Reader) {
	b.mu.Lock()
	_, owned := b.readers[r]
	delete(b.readers, r)
	b.mu.Unlock()
	if !owned {
		return
	}
	if err := r.Close(); err != nil {
		b.opts.logger.Warn("close reader", zap.Error(err))
	}
}

func (b *Broker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Close flushes the writer and closes every open reader. It is idempotent.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	readers := b.readers
	b.readers = make(map[*kafka.Reader]string)
	b.mu.Unlock()

	errs := b.writer.Close()
	if errs != nil {
		errs = fmt.Errorf("eventbus/kafka: close writer: %w", errs)
	}
	for r, topic := range readers {
		if err := r.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("eventbus/kafka: close reader %q: %w", topic, err))
		}
	}
	return errs
}

// validTopic applies Kafka's topic naming rules. Routing keys such as
// "data_OrderCreated" always pass.
func validTopic(topic string) error {
	if topic == "" || len(topic) > maxTopicLen || topic == "." || topic == ".." {
		return fmt.Errorf("eventbus/kafka: invalid topic %q", topic)
	}
	for _, c := range topic {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-':
		default:
			return fmt.Errorf("eventbus/kafka: invalid topic %q", topic)
		}
	}
	return nil
}

const maxTopicLen = 249

func partitionKey(msg core.Message) []byte {
	if key := msg.Key(); len(key) > 0 {
		return key
	}
	if id := msg.Headers()[core.HeaderEventID]; id != "" {
		return []byte(id)
	}
	return nil
}

func toHeaders(h map[string]string) []kafka.Header {
	if len(h) == 0 {
		return nil
	}
	headers := make([]kafka.Header, 0, len(h))
	for k, v := range h {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

// optsFromConfig maps broker.Config.Extra keys onto Options.
func optsFromConfig(cfg broker.Config) []Option {
	opts := []Option{WithLogger(cfg.Logger)}
	if v, ok := cfg.BoolOption("async"); ok {
		opts = append(opts, WithAsync(v))
	}
	if v, ok := cfg.IntOption("batch_size"); ok {
		opts = append(opts, WithBatchSize(v))
	}
	if v, ok := cfg.IntOption("max_bytes"); ok {
		opts = append(opts, WithMaxBytes(v))
	}
	if v, ok := cfg.BoolOption("auto_create_topics"); ok {
		opts = append(opts, WithAutoCreateTopics(v))
	}
	if v, ok := cfg.StringOption("start_offset"); ok {
		switch v {
		case "first":
			opts = append(opts, WithStartOffset(kafka.FirstOffset))
		case "last":
			opts = append(opts, WithStartOffset(kafka.LastOffset))
		}
	}
	return opts
}
