package capability

import (
	"fmt"
	"sync"

	"git.home.luguber.info/inful/stackctl/internal/entity"
)

// Registry maps entity names to capability factories. It is populated at
// program init by entity packages and read by the Resolver; after startup
// it is effectively immutable.
type Registry struct {
	mu        sync.RWMutex
	factories map[Key]Factory
}

// NewRegistry creates a new empty capability registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Key]Factory)}
}

// Register binds a factory to an entity. Returns an error for a nil factory,
// an invalid kind, or a duplicate binding.
func (r *Registry) Register(kind entity.Kind, name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for %s %s", kind, name)
	}
	if !kind.IsValid() {
		return fmt.Errorf("invalid entity kind %q", kind)
	}
	if name == "" {
		return fmt.Errorf("cannot register factory with empty entity name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key{Kind: kind, Name: name}
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("capability for %s %s already registered", kind, name)
	}

	r.factories[key] = factory
	return nil
}

// MustRegister is Register that panics on error, for use in package init.
func (r *Registry) MustRegister(kind entity.Kind, name string, factory Factory) {
	if err := r.Register(kind, name, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the factory bound to an entity, if any.
func (r *Registry) Lookup(kind entity.Kind, name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[Key{Kind: kind, Name: name}]
	return f, ok
}

// Has reports whether a factory is bound to an entity.
func (r *Registry) Has(kind entity.Kind, name string) bool {
	_, ok := r.Lookup(kind, name)
	return ok
}

// Count returns the number of registered bindings.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// defaultRegistry is the registration target for entity packages that bind
// their factories in init. Resolvers are constructed explicitly and may use
// this registry or a private one (tests use private registries).
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registration target.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register binds a factory in the default registry.
func Register(kind entity.Kind, name string, factory Factory) error {
	return defaultRegistry.Register(kind, name, factory)
}

// MustRegister binds a factory in the default registry, panicking on error.
func MustRegister(kind entity.Kind, name string, factory Factory) {
	defaultRegistry.MustRegister(kind, name, factory)
}
