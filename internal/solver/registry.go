package solver

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a new engine instance.
type Factory func() (Engine, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
	// Priority order for default selection (first available wins).
	priority = []string{"native"}
)

// Register registers an engine factory under a name. It is typically called
// from init() functions in backend packages, so a plain library build never
// links a backend it does not import. Re-registering a name replaces the
// previous factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Unregister removes a backend. Useful for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open returns a new engine from the named backend.
func Open(name string) (Engine, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: backend %q", ErrNoEngine, name)
	}
	return factory()
}

// Default returns an engine from the highest-priority registered backend,
// falling back to any registered backend when none of the preferred names
// are present.
func Default() (Engine, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range priority {
		if factory, ok := registry[name]; ok {
			return factory()
		}
	}
	for _, factory := range registry {
		return factory()
	}
	return nil, ErrNoEngine
}
