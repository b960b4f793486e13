package middleware

import (
	"fmt"
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/miladsoleymani/eventbus/core"
)

// MetricsCollector is the interface that metrics backends must implement.
// This keeps the middleware decoupled from any specific metrics library.
type MetricsCollector interface {
	// MessageProcessed records that a message was processed.
	// topic is the subscription pattern, duration is processing time,
	// and err is nil on success.
	MessageProcessed(topic string, duration time.Duration, err error)
}

// Metrics returns middleware that reports processing metrics to the given collector.
func Metrics(collector MetricsCollector) core.MiddlewareFunc {
	return func(next core.HandlerFunc) core.HandlerFunc {
		return func(c core.Context) error {
			start := time.Now()
			err := next(c)
			collector.MessageProcessed(c.Topic(), time.Since(start), err)
			return err
		}
	}
}

// VMCollector is a MetricsCollector backed by VictoriaMetrics/metrics.
// Each collector owns its own metric set, so several can coexist.
type VMCollector struct {
	prefix string
	set    *metrics.Set
}

// NewVMCollector creates a collector whose metric names start with prefix,
// e.g. "eventbus" yields eventbus_messages_total and
// eventbus_message_duration_seconds.
func NewVMCollector(prefix string) *VMCollector {
	return &VMCollector{prefix: prefix, set: metrics.NewSet()}
}

func (v *VMCollector) MessageProcessed(topic string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	v.set.GetOrCreateCounter(fmt.Sprintf(`%s_messages_total{topic=%q,status=%q}`, v.prefix, topic, status)).Inc()
	v.set.GetOrCreateHistogram(fmt.Sprintf(`%s_message_duration_seconds{topic=%q}`, v.prefix, topic)).Update(duration.Seconds())
}

// Count returns how many messages on topic finished with the given status ("ok" or "error").
func (v *VMCollector) Count(topic, status string) uint64 {
	return v.set.GetOrCreateCounter(fmt.Sprintf(`%s_messages_total{topic=%q,status=%q}`, v.prefix, topic, status)).Get()
}

// WritePrometheus writes all collected metrics in Prometheus text format.
func (v *VMCollector) WritePrometheus(w io.Writer) {
	v.set.WritePrometheus(w)
}
