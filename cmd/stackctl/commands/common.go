package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"log/slog"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/stackctl/internal/capability"
	"git.home.luguber.info/inful/stackctl/internal/compose"
	"git.home.luguber.info/inful/stackctl/internal/config"
	"git.home.luguber.info/inful/stackctl/internal/configstore"
	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/events"
	"git.home.luguber.info/inful/stackctl/internal/lifecycle"
	"git.home.luguber.info/inful/stackctl/internal/logfields"
	"git.home.luguber.info/inful/stackctl/internal/metrics"
	"git.home.luguber.info/inful/stackctl/internal/scaffold"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"stackctl.yaml"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `help:"Log output format (text or json)" enum:"text,json" default:"text"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Module ModuleCmd `cmd:"" help:"Manage long-running modules"`
	Tool   ToolCmd   `cmd:"" help:"Manage and run invocable tools"`
	Events EventsCmd `cmd:"" help:"Inspect the lifecycle audit trail"`
	Daemon DaemonCmd `cmd:"" help:"Run the monitoring daemon"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// App is the orchestrator context: every collaborator constructed once and
// passed by reference, no package-level state beyond the capability
// registration target.
type App struct {
	Cfg        *config.Config
	Manager    *lifecycle.Manager
	Scaffolder *scaffold.Scaffolder
	AuditStore events.Store
	Registry   *prom.Registry
}

// newApp wires the application from config. withMetrics selects a
// Prometheus recorder (daemon) over the no-op one (one-shot commands).
func newApp(root *CLI, withMetrics bool) (*App, func(), error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	configureLogging(root, cfg)

	paths := cfg.Paths()
	entities := entity.NewRegistry(paths)
	resolver := capability.NewResolver(capability.DefaultRegistry(), entities)
	runtime := &compose.CLIRuntime{Binary: cfg.Runtime.Binary, Timeout: cfg.RuntimeTimeout()}

	var store events.Store
	if dbPath := cfg.AuditDatabase(); dbPath != "" {
		sqlite, err := events.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit store: %w", err)
		}
		store = sqlite
	}

	var publisher *events.NATSPublisher
	if cfg.Audit.NATSURL != "" {
		publisher, err = events.NewNATSPublisher(cfg.Audit.NATSURL, cfg.Audit.NATSSubjectPrefix)
		if err != nil {
			// Event fan-out is best effort; the stack stays operable
			// without a broker.
			slog.Warn("NATS unavailable, events will not be published", logfields.Error(err))
		}
	}
	audit := events.NewRecorder(store, publisher)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var registry *prom.Registry
	if withMetrics {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	manager := lifecycle.NewManager(lifecycle.Options{
		Entities:      entities,
		Capabilities:  resolver,
		Runtime:       runtime,
		Configs:       configstore.NewStore(paths),
		ProjectPrefix: cfg.ProjectPrefix,
		Metrics:       recorder,
		Audit:         audit,
	})

	app := &App{
		Cfg:        cfg,
		Manager:    manager,
		Scaffolder: scaffold.NewScaffolder(paths),
		AuditStore: store,
		Registry:   registry,
	}
	cleanup := func() {
		if err := audit.Close(); err != nil {
			slog.Warn("audit shutdown incomplete", logfields.Error(err))
		}
	}
	return app, cleanup, nil
}

// configureLogging re-applies the logging setup once the config file is
// known. CLI flags win over file settings.
func configureLogging(root *CLI, cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if root.Verbose {
		level = slog.LevelDebug
	}

	format := cfg.Logging.Format
	if root.LogFormat != "text" {
		format = root.LogFormat
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// printJSON renders a value as indented JSON on stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
