package lifecycle

import (
	"context"
	"os"
	"sync"
	"time"

	"log/slog"

	"git.home.luguber.info/inful/stackctl/internal/capability"
	"git.home.luguber.info/inful/stackctl/internal/compose"
	"git.home.luguber.info/inful/stackctl/internal/configstore"
	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/errors"
	"git.home.luguber.info/inful/stackctl/internal/events"
	"git.home.luguber.info/inful/stackctl/internal/logfields"
	"git.home.luguber.info/inful/stackctl/internal/metrics"
)

// Operation names used in logs, metrics, and the audit trail.
const (
	OpStart   = "start"
	OpStop    = "stop"
	OpRestart = "restart"
	OpRun     = "run"
)

// Manager dispatches lifecycle operations for entities. Every public
// operation applies the same two-branch strategy: a capability instance is
// probed once, and when present its errors propagate as typed lifecycle
// errors; the convention path (manifest plus runtime, or scripts) is used
// only when no capability exists or the capability does not cover the
// operation.
type Manager struct {
	entities *entity.Registry
	caps     *capability.Resolver
	runtime  compose.Runtime
	configs  *configstore.Store
	prefix   string
	metrics  metrics.Recorder
	audit    *events.Recorder

	mu          sync.Mutex
	initialized map[string]bool
}

// Options configures a Manager. Metrics and Audit are optional.
type Options struct {
	Entities      *entity.Registry
	Capabilities  *capability.Resolver
	Runtime       compose.Runtime
	Configs       *configstore.Store
	ProjectPrefix string
	Metrics       metrics.Recorder
	Audit         *events.Recorder
}

// NewManager wires a manager from its collaborators.
func NewManager(opts Options) *Manager {
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Manager{
		entities:    opts.Entities,
		caps:        opts.Capabilities,
		runtime:     opts.Runtime,
		configs:     opts.Configs,
		prefix:      opts.ProjectPrefix,
		metrics:     rec,
		audit:       opts.Audit,
		initialized: make(map[string]bool),
	}
}

// Entities exposes the discovery registry to callers holding only a Manager.
func (m *Manager) Entities() *entity.Registry { return m.entities }

// Configs exposes the config store to callers holding only a Manager.
func (m *Manager) Configs() *configstore.Store { return m.configs }

func (m *Manager) paths() entity.Paths { return m.entities.Paths() }

func (m *Manager) project(name string) string {
	return compose.ProjectName(m.prefix, name)
}

func (m *Manager) hasManifest(kind entity.Kind, name string) bool {
	info, err := os.Stat(m.paths().Manifest(kind, name))
	return err == nil && info.Mode().IsRegular()
}

func (m *Manager) record(ctx context.Context, kind entity.Kind, name, op string, start time.Time, err error) {
	d := time.Since(start)
	m.metrics.ObserveOperationDuration(kind.String(), op, d)

	outcome := events.OutcomeSuccess
	result := metrics.ResultSuccess
	detail := map[string]string(nil)
	if err != nil {
		outcome = events.OutcomeFailed
		result = metrics.ResultFailed
		detail = map[string]string{"error": err.Error()}
	}
	m.metrics.IncOperationResult(kind.String(), op, result)
	m.audit.Record(ctx, events.Event{
		Kind: kind.String(), Entity: name, Operation: op, Outcome: outcome, Detail: detail,
	})
}

// Status derives the current lifecycle state of an entity. Modules with a
// manifest are classified from runtime container counts; an unreachable
// runtime yields unknown, while a counting failure against a reachable
// runtime is an error state. Script-managed modules use the data directory
// as the "has been set up" marker. Tools have no long-running state and
// always report unknown.
func (m *Manager) Status(ctx context.Context, kind entity.Kind, name string) (Status, error) {
	if !m.entities.Exists(kind, name) {
		return StatusUnknown, errors.EntityNotFound(kind.String(), name)
	}

	status := m.statusLocked(ctx, kind, name)
	m.metrics.SetEntityStatus(kind.String(), name, int(status))
	return status, nil
}

func (m *Manager) statusLocked(ctx context.Context, kind entity.Kind, name string) Status {
	if kind == entity.KindTool {
		return StatusUnknown
	}

	if m.hasManifest(kind, name) {
		counts, err := m.runtime.Counts(ctx, m.project(name), m.paths().Manifest(kind, name))
		if err != nil {
			if errors.IsRetryable(err) {
				slog.Warn("runtime unreachable, status unknown",
					logfields.Kind(kind.String()), logfields.Entity(name), logfields.Error(err))
				return StatusUnknown
			}
			slog.Warn("container count failed",
				logfields.Kind(kind.String()), logfields.Entity(name), logfields.Error(err))
			return StatusError
		}
		return StatusFromCounts(counts)
	}

	// Script-managed modules have no containers to count; the data
	// directory doubles as the set-up marker. A module with no manifest
	// and no setup script has no observable lifecycle state.
	if !isExecutable(m.paths().SetupScript(kind, name)) {
		return StatusUnknown
	}
	if info, err := os.Stat(m.paths().DataDirFor(name)); err == nil && info.IsDir() {
		return StatusRunning
	}
	return StatusStopped
}

// Start brings an entity up. Idempotent: a running entity is left alone.
func (m *Manager) Start(ctx context.Context, kind entity.Kind, name string) (err error) {
	if !m.entities.Exists(kind, name) {
		return errors.EntityNotFound(kind.String(), name)
	}
	begin := time.Now()
	defer func() { m.record(ctx, kind, name, OpStart, begin, err) }()

	if m.statusLocked(ctx, kind, name) == StatusRunning {
		slog.Info("entity already running",
			logfields.Kind(kind.String()), logfields.Entity(name), logfields.Operation(OpStart))
		return nil
	}

	err = m.startOnce(ctx, kind, name)
	return err
}

func (m *Manager) startOnce(ctx context.Context, kind entity.Kind, name string) error {
	switch kind {
	case entity.KindModule:
		lc, err := m.caps.Lifecycle(name)
		if err != nil {
			return err
		}
		if lc != nil {
			if err := lc.Start(); err != nil {
				return errors.EntityLifecycleError(kind.String(), name, OpStart, err)
			}
			slog.Info("entity started via capability",
				logfields.Kind(kind.String()), logfields.Entity(name))
			return nil
		}
	case entity.KindTool:
		ex, err := m.caps.Executable(name)
		if err != nil {
			return err
		}
		if ex != nil {
			if err := m.ensureInitialized(name, ex); err != nil {
				return errors.EntityLifecycleError(kind.String(), name, OpStart, err)
			}
			return nil
		}
	}

	if m.hasManifest(kind, name) {
		env := m.moduleEnv(kind, name)
		if err := m.runtime.Up(ctx, m.project(name), m.paths().Manifest(kind, name), env); err != nil {
			return errors.EntityLifecycleError(kind.String(), name, OpStart, err)
		}
		slog.Info("entity started via runtime",
			logfields.Kind(kind.String()), logfields.Entity(name))
		return nil
	}

	script := m.paths().SetupScript(kind, name)
	if !isExecutable(script) {
		return errors.EntityLifecycleError(kind.String(), name, OpStart,
			errors.New(errors.CategoryFilesystem, errors.SeverityError, "no manifest and no executable setup script"))
	}
	if _, err := runScript(ctx, script, m.paths().Dir(kind, name), m.moduleEnv(kind, name)); err != nil {
		return errors.EntityLifecycleError(kind.String(), name, OpStart, err)
	}
	slog.Info("entity started via setup script",
		logfields.Kind(kind.String()), logfields.Entity(name), logfields.Path(script))
	return nil
}

// Stop takes an entity down. Idempotent: a stopped entity is left alone.
// A script-managed entity without a teardown script is tolerated.
func (m *Manager) Stop(ctx context.Context, kind entity.Kind, name string) (err error) {
	if !m.entities.Exists(kind, name) {
		return errors.EntityNotFound(kind.String(), name)
	}
	begin := time.Now()
	defer func() { m.record(ctx, kind, name, OpStop, begin, err) }()

	if m.statusLocked(ctx, kind, name) == StatusStopped {
		slog.Info("entity already stopped",
			logfields.Kind(kind.String()), logfields.Entity(name), logfields.Operation(OpStop))
		return nil
	}

	err = m.stopOnce(ctx, kind, name)
	return err
}

func (m *Manager) stopOnce(ctx context.Context, kind entity.Kind, name string) error {
	if kind == entity.KindModule {
		lc, err := m.caps.Lifecycle(name)
		if err != nil {
			return err
		}
		if lc != nil {
			if err := lc.Stop(); err != nil {
				return errors.EntityLifecycleError(kind.String(), name, OpStop, err)
			}
			slog.Info("entity stopped via capability",
				logfields.Kind(kind.String()), logfields.Entity(name))
			return nil
		}
	}

	if m.hasManifest(kind, name) {
		if err := m.runtime.Down(ctx, m.project(name), m.paths().Manifest(kind, name)); err != nil {
			return errors.EntityLifecycleError(kind.String(), name, OpStop, err)
		}
		slog.Info("entity stopped via runtime",
			logfields.Kind(kind.String()), logfields.Entity(name))
		return nil
	}

	script := m.paths().TeardownScript(kind, name)
	if !isExecutable(script) {
		slog.Warn("no teardown path, treating stop as success",
			logfields.Kind(kind.String()), logfields.Entity(name), logfields.Path(script))
		return nil
	}
	if _, err := runScript(ctx, script, m.paths().Dir(kind, name), m.moduleEnv(kind, name)); err != nil {
		return errors.EntityLifecycleError(kind.String(), name, OpStop, err)
	}
	slog.Info("entity stopped via teardown script",
		logfields.Kind(kind.String()), logfields.Entity(name), logfields.Path(script))
	return nil
}

// Restart is stop followed by start. Stop-phase failures are logged and
// tolerated since restarting a half-down entity should still end running;
// start-phase failures propagate.
func (m *Manager) Restart(ctx context.Context, kind entity.Kind, name string) (err error) {
	if !m.entities.Exists(kind, name) {
		return errors.EntityNotFound(kind.String(), name)
	}
	begin := time.Now()
	defer func() { m.record(ctx, kind, name, OpRestart, begin, err) }()

	if m.statusLocked(ctx, kind, name) != StatusStopped {
		if stopErr := m.stopOnce(ctx, kind, name); stopErr != nil {
			slog.Warn("stop phase of restart failed, starting anyway",
				logfields.Kind(kind.String()), logfields.Entity(name), logfields.Error(stopErr))
		}
	}

	err = m.startOnce(ctx, kind, name)
	return err
}

// Logs fetches service logs through the runtime. There is no capability
// path for logs; an entity without a manifest has none to fetch.
func (m *Manager) Logs(ctx context.Context, kind entity.Kind, name, service string, tail int) (string, error) {
	if !m.entities.Exists(kind, name) {
		return "", errors.EntityNotFound(kind.String(), name)
	}
	if !m.hasManifest(kind, name) {
		return "", errors.New(errors.CategoryLifecycle, errors.SeverityError, "entity has no manifest, logs unavailable").
			WithContext("kind", kind.String()).
			WithContext("entity", name)
	}
	return m.runtime.Logs(ctx, m.project(name), m.paths().Manifest(kind, name), service, tail)
}

// WaitForStatus polls the entity status until it matches want or the
// timeout elapses.
func (m *Manager) WaitForStatus(ctx context.Context, kind entity.Kind, name string, want Status, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		status, err := m.Status(ctx, kind, name)
		if err != nil {
			return err
		}
		if status == want {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New(errors.CategoryLifecycle, errors.SeverityError, "timed out waiting for status").
				WithContext("kind", kind.String()).
				WithContext("entity", name).
				WithContext("want", want.String()).
				WithContext("last", status.String())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// moduleEnv loads the entity's persisted configuration as environment
// entries for manifest interpolation and script execution. A missing
// config file is normal and yields nil.
func (m *Manager) moduleEnv(kind entity.Kind, name string) map[string]string {
	cfg, err := m.configs.GetAll(kind, name)
	if err != nil {
		return nil
	}
	env := make(map[string]string, len(cfg))
	for k, v := range cfg {
		if s, ok := v.(string); ok {
			env[k] = s
		}
	}
	return env
}

func (m *Manager) ensureInitialized(name string, ex capability.Executable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized[name] {
		return nil
	}
	if err := ex.Initialize(); err != nil {
		return err
	}
	m.initialized[name] = true
	slog.Debug("tool initialized", logfields.Entity(name))
	return nil
}
