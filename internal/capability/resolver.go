package capability

import (
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/errors"
	"git.home.luguber.info/inful/stackctl/internal/logfields"
)

// Resolver produces and caches capability instances. At most one instance
// exists per entity per process; instances live until process exit. The
// cache is guarded by a mutex so concurrent first-access is safe.
type Resolver struct {
	registry *Registry
	entities *entity.Registry

	mu        sync.Mutex
	instances map[Key]Instance
}

// NewResolver creates a resolver over a factory registry and an entity registry.
func NewResolver(registry *Registry, entities *entity.Registry) *Resolver {
	return &Resolver{
		registry:  registry,
		entities:  entities,
		instances: make(map[Key]Instance),
	}
}

// Implements reports whether an entity has a registered capability factory.
// A missing entity directory always reports false.
func (r *Resolver) Implements(kind entity.Kind, name string) bool {
	if !r.entities.Exists(kind, name) {
		return false
	}
	return r.registry.Has(kind, name)
}

// Instance returns the capability instance for an entity, creating and
// caching it on first access. It returns EntityNotFound if the entity
// directory does not exist. An entity without a registered factory yields
// (nil, nil); so does a factory that fails, which is logged and treated as
// "no capability" so the dispatcher can use the convention path.
func (r *Resolver) Instance(kind entity.Kind, name string) (Instance, error) {
	if !r.entities.Exists(kind, name) {
		return nil, errors.EntityNotFound(kind.String(), name)
	}

	key := Key{Kind: kind, Name: name}

	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[key]; ok {
		return inst, nil
	}

	factory, ok := r.registry.Lookup(kind, name)
	if !ok {
		return nil, nil
	}

	inst, err := factory()
	if err != nil {
		slog.Error("capability factory failed, falling back to convention path",
			logfields.Kind(kind.String()), logfields.Entity(name), logfields.Error(err))
		return nil, nil
	}

	r.instances[key] = inst
	slog.Debug("capability instance created", logfields.Kind(kind.String()), logfields.Entity(name))
	return inst, nil
}

// Lifecycle returns the Lifecycle capability of a module, or nil when the
// module has none. An instance of the wrong shape is logged and ignored.
func (r *Resolver) Lifecycle(name string) (Lifecycle, error) {
	inst, err := r.Instance(entity.KindModule, name)
	if err != nil || inst == nil {
		return nil, err
	}
	lc, ok := inst.(Lifecycle)
	if !ok {
		slog.Error("registered capability does not implement Lifecycle",
			logfields.Kind(entity.KindModule.String()), logfields.Entity(name))
		return nil, nil
	}
	return lc, nil
}

// Executable returns the Executable capability of a tool, or nil when the
// tool has none. An instance of the wrong shape is logged and ignored.
func (r *Resolver) Executable(name string) (Executable, error) {
	inst, err := r.Instance(entity.KindTool, name)
	if err != nil || inst == nil {
		return nil, err
	}
	ex, ok := inst.(Executable)
	if !ok {
		slog.Error("registered capability does not implement Executable",
			logfields.Kind(entity.KindTool.String()), logfields.Entity(name))
		return nil, nil
	}
	return ex, nil
}
