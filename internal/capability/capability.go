// Package capability defines the structured in-process interfaces an entity
// may implement instead of relying on filesystem conventions, and the
// registry/resolver pair that produces instances of them.
//
// Capability implementations are bound at program init via explicit factory
// registration; there is no runtime type scanning. The dispatcher probes the
// resolver once per operation and uses the convention path only when no
// capability instance exists or the capability does not cover the operation.
package capability

import (
	"git.home.luguber.info/inful/stackctl/internal/entity"
)

// Info is the read-only metadata a capability reports about its entity.
type Info struct {
	Name        string         `json:"name" yaml:"name"`
	Version     string         `json:"version" yaml:"version"`
	Description string         `json:"description" yaml:"description"`
	Author      string         `json:"author" yaml:"author"`
	Config      map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Lifecycle is the capability shape for modules: long-running entities with
// explicit start/stop semantics.
type Lifecycle interface {
	// Start starts the module's services. Implementations should be idempotent.
	Start() error

	// Stop stops the module's services. Implementations should be idempotent.
	Stop() error

	// Status returns implementation-defined status details. The result is
	// surfaced verbatim as the interface_status field of a health report.
	Status() (map[string]any, error)

	// Info returns metadata about the module, including its config map.
	Info() (Info, error)
}

// Executable is the capability shape for tools: invocable entities with
// initialize/execute semantics.
type Executable interface {
	// Initialize prepares the tool for execution. Called once per process
	// before the first Execute.
	Initialize() error

	// Execute runs the tool with the given options and returns its result.
	Execute(opts map[string]any) (map[string]any, error)

	// Info returns metadata about the tool, including its config map.
	Info() (Info, error)
}

// Instance is the union of the capability shapes. Concrete values are either
// a Lifecycle or an Executable depending on the entity kind.
type Instance any

// Factory constructs a capability instance. Factories take no arguments;
// configuration is read by the instance itself.
type Factory func() (Instance, error)

// Key identifies a capability binding.
type Key struct {
	Kind entity.Kind
	Name string
}
