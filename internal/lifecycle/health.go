package lifecycle

import (
	"context"

	"log/slog"

	"git.home.luguber.info/inful/stackctl/internal/compose"
	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/errors"
	"git.home.luguber.info/inful/stackctl/internal/logfields"
)

// ServiceHealth is the per-container slice of a health report.
type ServiceHealth struct {
	Service     string `json:"service"`
	ContainerID string `json:"container_id"`
	State       string `json:"state"`
}

// HealthReport is the unified health contract across both dispatch paths.
// InterfaceStatus carries the raw capability status map when the entity
// implements one; Services is populated from the runtime otherwise.
type HealthReport struct {
	Entity          string          `json:"entity"`
	Status          Status          `json:"-"`
	StatusText      string          `json:"status"`
	Services        []ServiceHealth `json:"services"`
	InterfaceStatus map[string]any  `json:"interface_status,omitempty"`
}

// Health reports entity health. The capability status map is preferred;
// the fallback enumerates manifest services and asks the runtime about
// each one. Services without a container are omitted.
func (m *Manager) Health(ctx context.Context, kind entity.Kind, name string) (*HealthReport, error) {
	if !m.entities.Exists(kind, name) {
		return nil, errors.EntityNotFound(kind.String(), name)
	}

	status := m.statusLocked(ctx, kind, name)
	report := &HealthReport{
		Entity:     name,
		Status:     status,
		StatusText: status.String(),
		Services:   []ServiceHealth{},
	}

	if kind == entity.KindModule {
		lc, err := m.caps.Lifecycle(name)
		if err != nil {
			return nil, err
		}
		if lc != nil {
			raw, err := lc.Status()
			if err != nil {
				return nil, errors.EntityLifecycleError(kind.String(), name, "health", err)
			}
			report.InterfaceStatus = raw
			return report, nil
		}
	}

	if !m.hasManifest(kind, name) {
		return report, nil
	}

	manifestPath := m.paths().Manifest(kind, name)
	manifest, err := compose.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	project := m.project(name)
	for _, service := range manifest.ServiceNames() {
		id, err := m.runtime.ContainerID(ctx, project, manifestPath, service)
		if err != nil {
			slog.Warn("container lookup failed",
				logfields.Entity(name), logfields.Service(service), logfields.Error(err))
			continue
		}
		if id == "" {
			continue
		}

		state, err := m.runtime.ContainerHealth(ctx, id)
		if err != nil {
			slog.Warn("container health lookup failed",
				logfields.Entity(name), logfields.Service(service),
				logfields.ContainerID(id), logfields.Error(err))
			continue
		}
		if state == "none" {
			// No healthcheck defined; a container that exists and answers
			// inspect is treated as running.
			state = "running"
		}

		report.Services = append(report.Services, ServiceHealth{
			Service:     service,
			ContainerID: id,
			State:       state,
		})
	}

	return report, nil
}
