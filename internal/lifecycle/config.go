package lifecycle

import (
	"git.home.luguber.info/inful/stackctl/internal/capability"
	"git.home.luguber.info/inful/stackctl/internal/configstore"
	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/errors"
)

// capabilityConfig returns the capability's info config map when the
// entity implements one and the map is non-empty.
func (m *Manager) capabilityConfig(kind entity.Kind, name string) (map[string]any, error) {
	var info capability.Info
	var err error

	switch kind {
	case entity.KindModule:
		var lc capability.Lifecycle
		lc, err = m.caps.Lifecycle(name)
		if err != nil || lc == nil {
			return nil, err
		}
		info, err = lc.Info()
	case entity.KindTool:
		var ex capability.Executable
		ex, err = m.caps.Executable(name)
		if err != nil || ex == nil {
			return nil, err
		}
		info, err = ex.Info()
	default:
		return nil, errors.InvalidArgument("unrecognized entity kind")
	}
	if err != nil {
		return nil, errors.EntityLifecycleError(kind.String(), name, "info", err)
	}
	if len(info.Config) == 0 {
		return nil, nil
	}
	return info.Config, nil
}

// GetConfig resolves a single configuration key, preferring the
// capability's config map before touching the filesystem. A missing key
// is reported through the found flag for both kinds.
func (m *Manager) GetConfig(kind entity.Kind, name, key string) (any, bool, error) {
	if !m.entities.Exists(kind, name) {
		return nil, false, errors.EntityNotFound(kind.String(), name)
	}

	if cfg, err := m.capabilityConfig(kind, name); err != nil {
		return nil, false, err
	} else if cfg != nil {
		v, ok := lookupConfig(cfg, kind, key)
		return v, ok, nil
	}

	return m.configs.Get(kind, name, key)
}

// GetAllConfig resolves the full configuration map with the same
// capability preference as GetConfig.
func (m *Manager) GetAllConfig(kind entity.Kind, name string) (map[string]any, error) {
	if !m.entities.Exists(kind, name) {
		return nil, errors.EntityNotFound(kind.String(), name)
	}

	if cfg, err := m.capabilityConfig(kind, name); err != nil {
		return nil, err
	} else if cfg != nil {
		return cfg, nil
	}

	return m.configs.GetAll(kind, name)
}

// SetConfig persists a key. There is no capability setter; writes always
// go to the filesystem store.
func (m *Manager) SetConfig(kind entity.Kind, name, key, value string) error {
	if !m.entities.Exists(kind, name) {
		return errors.EntityNotFound(kind.String(), name)
	}
	return m.configs.Set(kind, name, key, value)
}

func lookupConfig(cfg map[string]any, kind entity.Kind, key string) (any, bool) {
	if kind == entity.KindTool {
		return configstore.LookupPath(cfg, key)
	}
	v, ok := cfg[key]
	return v, ok
}
