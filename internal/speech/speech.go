// Package speech turns reply text into playable audio clips.
package speech

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Clip is a synthesized audio payload.
type Clip struct {
	Bytes    []byte
	MIMEType string
}

// Synthesizer converts text to speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Clip, error)
	Name() string
}

// Factory creates a synthesizer from configuration.
type Factory func(config map[string]any) (Synthesizer, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a synthesizer factory under a name.
func RegisterFactory(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// New creates a synthesizer by name.
func New(name string, config map[string]any) (Synthesizer, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown synthesizer: %s", name)
	}
	return factory(config)
}

// List returns registered synthesizer names, sorted.
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
