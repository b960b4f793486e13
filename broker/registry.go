package broker

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/miladsoleymani/eventbus/core"
)

// Factory builds a core.Broker from cfg.
type Factory func(cfg Config) (core.Broker, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a broker available under name, matched case-insensitively.
// Plugins call it from init(). Registering a nil factory or the same name
// twice panics.
func Register(name string, factory Factory) {
	key := strings.ToLower(name)

	mu.Lock()
	defer mu.Unlock()
	if factory == nil {
		panic("eventbus: broker factory for " + name + " is nil")
	}
	if _, dup := factories[key]; dup {
		panic("eventbus: broker " + name + " registered twice")
	}
	factories[key] = factory
}

// Create builds the broker registered under name. Plugins are linked in by
// a blank import, e.g. _ "github.com/miladsoleymani/eventbus/plugins/kafka".
func Create(name string, cfg Config) (core.Broker, error) {
	mu.RLock()
	f, ok := factories[strings.ToLower(name)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("eventbus: unknown broker %q (registered: %s)", name, strings.Join(Names(), ", "))
	}

	b, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("eventbus: create broker %q: %w", name, err)
	}
	return b, nil
}

// Names returns the registered broker names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
