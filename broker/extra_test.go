package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigOptions(t *testing.T) {
	cfg := Config{Extra: map[string]any{
		"batch_size":  "50",
		"max_deliver": 3,
		"ratio":       float64(7),
		"async":       "true",
		"exchange":    "events",
		"empty":       "",
		"broken":      "x",
	}}

	n, ok := cfg.IntOption("batch_size")
	assert.True(t, ok)
	assert.Equal(t, 50, n)

	n, ok = cfg.IntOption("max_deliver")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = cfg.IntOption("ratio")
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = cfg.IntOption("broken")
	assert.False(t, ok)
	_, ok = cfg.IntOption("missing")
	assert.False(t, ok)

	b, ok := cfg.BoolOption("async")
	assert.True(t, ok)
	assert.True(t, b)

	s, ok := cfg.StringOption("exchange")
	assert.True(t, ok)
	assert.Equal(t, "events", s)
	_, ok = cfg.StringOption("empty")
	assert.False(t, ok)

	_, ok = Config{}.IntOption("anything")
	assert.False(t, ok)
}
