package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/miladsoleymani/eventbus/broker"
)

// EnvPrefix prefixes every environment override, e.g. EVENTBUS_BROKER_NAME.
const EnvPrefix = "EVENTBUS"

// Config holds all application configuration
type Config struct {
	Broker  BrokerConfig  `mapstructure:"broker"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// BrokerConfig selects and configures the broker plugin
type BrokerConfig struct {
	Name    string         `mapstructure:"name"`
	Brokers []string       `mapstructure:"brokers"`
	Topic   string         `mapstructure:"topic"`
	Group   string         `mapstructure:"group"`
	Extra   map[string]any `mapstructure:"extra"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json or console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr or a file path
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// Load reads configuration from a YAML file and EVENTBUS_* environment
// variables. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("broker.name", "memory")
	v.SetDefault("broker.brokers", []string{})
	v.SetDefault("broker.topic", "")
	v.SetDefault("broker.group", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.prefix", "eventbus")
}

// Validate checks that the configuration can build a broker
func (c *Config) Validate() error {
	if c.Broker.Name == "" {
		return errors.New("broker.name is required")
	}
	if !strings.EqualFold(c.Broker.Name, "memory") && len(c.Broker.Brokers) == 0 {
		return fmt.Errorf("broker.brokers is required for broker %q", c.Broker.Name)
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Prefix == "" {
		return errors.New("metrics.prefix is required when metrics are enabled")
	}
	return nil
}

// ToBroker converts the section into the broker-agnostic plugin config.
func (b BrokerConfig) ToBroker() broker.Config {
	return broker.Config{
		Brokers: b.Brokers,
		Topic:   b.Topic,
		Group:   b.Group,
		Extra:   b.Extra,
	}
}
