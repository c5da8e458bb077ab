package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a provider from backend-specific configuration.
type Factory func(config map[string]any) (Provider, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a provider factory under name.
// Called from provider init functions.
func RegisterFactory(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// New builds the named provider with the given configuration.
func New(name string, config map[string]any) (Provider, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("provider %q not registered (have: %v)", name, List())
	}

	return factory(config)
}

// List returns all registered provider names, sorted.
func List() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
