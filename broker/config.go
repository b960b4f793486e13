package broker

import "go.uber.org/zap"

// Config is what every plugin factory receives. Fields a plugin has no use
// for are ignored; plugin-specific settings go in Extra.
type Config struct {
	// Brokers lists bootstrap addresses or URLs, e.g. "localhost:9092".
	Brokers []string
	// Topic is an optional default topic or queue.
	Topic string
	// Group is the consumer group, durable prefix or queue prefix,
	// depending on the plugin.
	Group string
	// Logger receives plugin diagnostics. Nil disables logging.
	Logger *zap.Logger
	// Extra is read through IntOption, BoolOption and StringOption.
	Extra map[string]any
}
