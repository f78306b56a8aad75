package lifecycle

import (
	"os"
	"strings"

	"git.home.luguber.info/inful/stackctl/internal/capability"
	"git.home.luguber.info/inful/stackctl/internal/compose"
	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/errors"
)

// Metadata is the read-only description of an entity, sourced from the
// capability's info call or assembled from the entity's files.
type Metadata struct {
	Name        string         `json:"name"`
	Kind        string         `json:"kind"`
	Version     string         `json:"version,omitempty"`
	Description string         `json:"description,omitempty"`
	Author      string         `json:"author,omitempty"`
	Path        string         `json:"path,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	Services    []string       `json:"services,omitempty"`
}

// Metadata describes an entity. The capability info is authoritative when
// present; the fallback reads the VERSION file, manifest services, the
// persisted configuration, and for tools the descriptive tool block of
// config.yaml, tolerating whatever is missing.
func (m *Manager) Metadata(kind entity.Kind, name string) (*Metadata, error) {
	if !m.entities.Exists(kind, name) {
		return nil, errors.EntityNotFound(kind.String(), name)
	}

	info, err := m.capabilityInfo(kind, name)
	if err != nil {
		return nil, err
	}
	if info != nil {
		md := &Metadata{
			Name:        info.Name,
			Kind:        kind.String(),
			Version:     info.Version,
			Description: info.Description,
			Author:      info.Author,
			Path:        m.paths().Dir(kind, name),
			Config:      info.Config,
		}
		if md.Name == "" {
			md.Name = name
		}
		return md, nil
	}

	md := &Metadata{Name: name, Kind: kind.String(), Path: m.paths().Dir(kind, name)}

	if data, err := os.ReadFile(m.paths().Version(kind, name)); err == nil { // #nosec G304 -- path is derived from the stack layout
		md.Version = strings.TrimSpace(string(data))
	}
	if m.hasManifest(kind, name) {
		if manifest, err := compose.LoadManifest(m.paths().Manifest(kind, name)); err == nil {
			md.Services = manifest.ServiceNames()
		}
	}
	if cfg, err := m.configs.GetAll(kind, name); err == nil {
		md.Config = cfg
		if kind == entity.KindTool {
			md.applyToolSection(cfg)
		}
	}
	return md, nil
}

// applyToolSection fills the descriptive fields from the tool block of a
// conventional tool's config.yaml. A VERSION file wins over the block.
func (md *Metadata) applyToolSection(cfg map[string]any) {
	section, ok := cfg["tool"].(map[string]any)
	if !ok {
		return
	}
	if md.Version == "" {
		if v, ok := section["version"].(string); ok {
			md.Version = v
		}
	}
	if v, ok := section["description"].(string); ok {
		md.Description = v
	}
	if v, ok := section["author"].(string); ok {
		md.Author = v
	}
}

func (m *Manager) capabilityInfo(kind entity.Kind, name string) (*capability.Info, error) {
	switch kind {
	case entity.KindModule:
		lc, err := m.caps.Lifecycle(name)
		if err != nil || lc == nil {
			return nil, err
		}
		info, err := lc.Info()
		if err != nil {
			return nil, errors.EntityLifecycleError(kind.String(), name, "info", err)
		}
		return &info, nil
	case entity.KindTool:
		ex, err := m.caps.Executable(name)
		if err != nil || ex == nil {
			return nil, err
		}
		info, err := ex.Info()
		if err != nil {
			return nil, errors.EntityLifecycleError(kind.String(), name, "info", err)
		}
		return &info, nil
	}
	return nil, nil
}
