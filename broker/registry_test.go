package broker_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/eventbus/broker"
	"github.com/miladsoleymani/eventbus/core"
	"github.com/miladsoleymani/eventbus/internal/mock"
)

func TestRegisterAndCreate(t *testing.T) {
	var got broker.Config
	broker.Register("test-mock", func(cfg broker.Config) (core.Broker, error) {
		got = cfg
		return mock.NewBroker(), nil
	})

	b, err := broker.Create("test-mock", broker.Config{Brokers: []string{"a:1"}, Group: "g"})
	require.NoError(t, err)
	assert.NotNil(t, b)
	assert.Equal(t, []string{"a:1"}, got.Brokers)
	assert.Equal(t, "g", got.Group)
	assert.Contains(t, broker.Names(), "test-mock")
}

func TestCreate_FactoryError(t *testing.T) {
	refused := errors.New("refused")
	broker.Register("test-failing", func(broker.Config) (core.Broker, error) {
		return nil, refused
	})

	_, err := broker.Create("test-failing", broker.Config{})
	assert.ErrorIs(t, err, refused)
}

func TestCreate_Unknown(t *testing.T) {
	_, err := broker.Create("does-not-exist", broker.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown broker "does-not-exist"`)
}

func TestCreate_CaseInsensitive(t *testing.T) {
	broker.Register("Test-Upper", func(broker.Config) (core.Broker, error) {
		return mock.NewBroker(), nil
	})

	_, err := broker.Create("test-upper", broker.Config{})
	require.NoError(t, err)
	assert.Contains(t, broker.Names(), "test-upper")
}

func TestRegister_Panics(t *testing.T) {
	noop := func(broker.Config) (core.Broker, error) { return mock.NewBroker(), nil }
	broker.Register("test-dup", noop)

	assert.Panics(t, func() { broker.Register("TEST-DUP", noop) })
	assert.Panics(t, func() { broker.Register("test-nil", nil) })
}
