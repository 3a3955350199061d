package circuitbreaker

import (
	"sync"
)

// Registry holds one breaker per logical operation key. Breakers are created
// lazily on first use and live for the process lifetime. The registry is safe
// for concurrent use.
type Registry struct {
	mu        sync.Mutex
	breakers  map[string]*Breaker
	overrides map[string]Config
	defaults  Config
}

// NewRegistry creates a registry whose breakers default to the given
// configuration (with Name replaced by each breaker's key).
func NewRegistry(defaults Config) *Registry {
	return &Registry{
		breakers:  make(map[string]*Breaker),
		overrides: make(map[string]Config),
		defaults:  defaults,
	}
}

// Configure sets the configuration used when the breaker for name is first
// created. It has no effect on a breaker that already exists.
func (r *Registry) Configure(name string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg.Name = name
	r.overrides[name] = cfg
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}

	cfg, ok := r.overrides[name]
	if !ok {
		cfg = r.defaults
		cfg.Name = name
	}
	b := New(cfg)
	r.breakers[name] = b
	return b
}

// States returns the current state of every breaker created so far,
// keyed by operation name. Used for health reporting.
func (r *Registry) States() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make(map[string]string, len(r.breakers))
	for name, b := range r.breakers {
		states[name] = b.State().String()
	}
	return states
}
