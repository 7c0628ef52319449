package kinds

import (
	"sort"
	"sync"
)

// Registry holds all registered measurement kind configurations
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Config
}

// NewRegistry creates a new kind registry
func NewRegistry() *Registry {
	return &Registry{
		kinds: make(map[string]Config),
	}
}

// DefaultRegistry returns a registry with the built-in voltage, current and battery kinds
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Voltage())
	r.Register(Current())
	r.Register(Battery())
	return r
}

// Register adds a configuration to the registry, replacing any previous one
// for the same kind. Missing fields are filled with defaults.
func (r *Registry) Register(c Config) {
	if c.Kind == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.kinds[c.Kind] = c.WithDefaults()
}

// Get retrieves a configuration by kind
func (r *Registry) Get(kind string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.kinds[kind]
	return c, ok
}

// Resolve returns the registered configuration for a kind, or the built-in one
func (r *Registry) Resolve(kind string) Config {
	if c, ok := r.Get(kind); ok {
		return c
	}
	return Builtin(kind)
}

// All returns all registered configurations sorted by kind
func (r *Registry) All() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]Config, 0, len(r.kinds))
	for _, c := range r.kinds {
		configs = append(configs, c)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Kind < configs[j].Kind
	})
	return configs
}

// Kinds returns the registered kind names in sorted order
func (r *Registry) Kinds() []string {
	configs := r.All()
	names := make([]string, len(configs))
	for i, c := range configs {
		names[i] = c.Kind
	}
	return names
}
