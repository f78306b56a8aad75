// Package configstore persists per-entity configuration. Modules use a flat
// KEY=value env file under the stack config directory; tools use a nested
// YAML file inside the tool directory. Both kinds share one contract: a
// missing file is a config error, a missing key is an absent result.
package configstore

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/errors"
	"git.home.luguber.info/inful/stackctl/internal/logfields"
)

// Store reads and writes entity configuration files. Writes rewrite the
// whole file, so they are serialized per path to keep concurrent callers
// from interleaving read-modify-write cycles.
type Store struct {
	paths entity.Paths

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store over the given layout.
func NewStore(paths entity.Paths) *Store {
	return &Store{paths: paths, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) pathLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

// GetAll returns the full configuration map of an entity. Module values are
// strings; tool values may be nested maps. A missing file yields
// EntityConfigNotFound.
func (s *Store) GetAll(kind entity.Kind, name string) (map[string]any, error) {
	path := s.paths.ConfigFile(kind, name)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.EntityConfigNotFound(kind.String(), name)
	}

	if kind == entity.KindTool {
		return s.readYAML(kind, name, path)
	}
	return s.readEnv(kind, name, path)
}

// Get looks up a single key. Tool keys may be dot paths into nested maps.
// A missing key is reported through the found flag, not an error.
func (s *Store) Get(kind entity.Kind, name, key string) (any, bool, error) {
	cfg, err := s.GetAll(kind, name)
	if err != nil {
		return nil, false, err
	}
	if kind == entity.KindTool {
		v, ok := LookupPath(cfg, key)
		return v, ok, nil
	}
	v, ok := cfg[key]
	return v, ok, nil
}

// Set writes a single key, creating the config directory and file when
// absent. The whole file is rewritten; last writer wins.
func (s *Store) Set(kind entity.Kind, name, key, value string) error {
	if key == "" {
		return errors.InvalidArgument("configuration key must not be empty")
	}

	path := s.paths.ConfigFile(kind, name)
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(s.paths.ConfigDirFor(kind, name), 0o750); err != nil {
		return errors.EntityConfigUpdateError(key, value, err)
	}

	var err error
	if kind == entity.KindTool {
		err = s.setYAML(path, key, value)
	} else {
		err = s.setEnv(path, key, value)
	}
	if err != nil {
		return errors.EntityConfigUpdateError(key, value, err)
	}

	slog.Info("configuration updated",
		logfields.Kind(kind.String()), logfields.Entity(name), slog.String("key", key))
	return nil
}

func (s *Store) readEnv(kind entity.Kind, name, path string) (map[string]any, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityError, "reading entity configuration").
			WithContext("kind", kind.String()).
			WithContext("entity", name)
	}
	cfg := make(map[string]any, len(values))
	for k, v := range values {
		cfg[k] = v
	}
	return cfg, nil
}

func (s *Store) readYAML(kind entity.Kind, name, path string) (map[string]any, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is derived from the stack layout
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityError, "reading entity configuration").
			WithContext("kind", kind.String()).
			WithContext("entity", name)
	}
	cfg := make(map[string]any)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityError, "parsing entity configuration").
			WithContext("kind", kind.String()).
			WithContext("entity", name)
	}
	return cfg, nil
}

func (s *Store) setEnv(path, key, value string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		values = make(map[string]string)
	}
	values[key] = value
	return godotenv.Write(values, path)
}

func (s *Store) setYAML(path, key, value string) error {
	cfg := make(map[string]any)
	data, err := os.ReadFile(path) // #nosec G304 -- path is derived from the stack layout
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	setPath(cfg, key, value)

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// LookupPath walks a dot path through nested maps. Both map[string]any and
// map[any]any nesting are handled since yaml decoding can produce either.
func LookupPath(cfg map[string]any, key string) (any, bool) {
	parts := strings.Split(key, ".")
	var current any = cfg
	for _, part := range parts {
		switch m := current.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		case map[any]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	return current, true
}

// setPath writes a dot path into nested maps, creating intermediate maps
// as needed. A non-map intermediate value is replaced.
func setPath(cfg map[string]any, key, value string) {
	parts := strings.Split(key, ".")
	current := cfg
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
