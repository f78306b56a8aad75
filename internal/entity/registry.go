package entity

import (
	"log/slog"
	"os"
	"sort"

	"git.home.luguber.info/inful/stackctl/internal/logfields"
)

// Registry discovers entities by scanning the kind's root directory.
// It holds no state beyond the layout; every query reflects the current
// filesystem contents.
type Registry struct {
	paths Paths
}

// NewRegistry creates a registry over the given layout.
func NewRegistry(paths Paths) *Registry {
	return &Registry{paths: paths}
}

// Paths returns the layout the registry scans.
func (r *Registry) Paths() Paths { return r.paths }

// List returns the sorted names of all entities of a kind. Immediate
// subdirectories of the kind's root are entities, excluding dot-prefixed
// names and the template directory. A missing or unreadable root yields
// an empty list, not an error.
func (r *Registry) List(kind Kind) []string {
	root := r.paths.Root(kind)

	entries, err := os.ReadDir(root)
	if err != nil {
		slog.Debug("entity root not readable", logfields.Kind(kind.String()), logfields.Path(root), logfields.Error(err))
		return nil
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == TemplateName || name[0] == '.' {
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Exists reports whether an entity directory exists.
func (r *Registry) Exists(kind Kind, name string) bool {
	if name == "" {
		return false
	}
	info, err := os.Stat(r.paths.Dir(kind, name))
	return err == nil && info.IsDir()
}
