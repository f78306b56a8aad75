package compose

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/stackctl/internal/errors"
)

// Manifest is the subset of a compose file the manager cares about:
// which services exist. Everything else is the runtime's business.
type Manifest struct {
	Services map[string]ServiceSpec `yaml:"services"`
}

// ServiceSpec carries the per-service fields surfaced in metadata output.
type ServiceSpec struct {
	Image         string    `yaml:"image"`
	ContainerName string    `yaml:"container_name"`
	Ports         []string  `yaml:"ports"`
	DependsOn     yaml.Node `yaml:"depends_on"`
}

// LoadManifest parses a compose manifest from disk. A missing file is a
// not-found error so callers can distinguish "no manifest" from a bad one.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is derived from the stack layout
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CategoryNotFound, errors.SeverityError, "manifest not found").
				WithContext("path", path)
		}
		return nil, errors.Wrap(err, errors.CategoryFilesystem, errors.SeverityError, "reading manifest").
			WithContext("path", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, errors.SeverityError, "parsing manifest").
			WithContext("path", path)
	}
	if len(m.Services) == 0 {
		return nil, errors.New(errors.CategoryValidation, errors.SeverityError, "manifest declares no services").
			WithContext("path", path)
	}
	return &m, nil
}

// ServiceNames returns the declared service names, sorted.
func (m *Manifest) ServiceNames() []string {
	names := make([]string, 0, len(m.Services))
	for name := range m.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasService reports whether the manifest declares the named service.
func (m *Manifest) HasService(name string) bool {
	_, ok := m.Services[name]
	return ok
}

// ProjectName builds the compose project name for an entity. The prefix
// isolates projects of one stack installation from another on a shared host.
func ProjectName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return fmt.Sprintf("%s-%s", prefix, name)
}
