// Package config loads the stack configuration file and resolves the
// on-disk layout the rest of the system operates on.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/stackctl/internal/entity"
)

// DefaultConfigFile is the config file name looked up in the stack root.
const DefaultConfigFile = "stackctl.yaml"

// Config represents the application configuration.
type Config struct {
	// Root is the stack installation directory. All relative layout paths
	// resolve against it.
	Root string `yaml:"root"`

	// ProjectPrefix namespaces compose project names on a shared host.
	ProjectPrefix string `yaml:"project_prefix"`

	Layout  LayoutConfig  `yaml:"layout"`
	Runtime RuntimeConfig `yaml:"runtime"`
	Logging LoggingConfig `yaml:"logging"`
	Audit   AuditConfig   `yaml:"audit"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// LayoutConfig holds the entity directory layout, relative to Root unless
// absolute.
type LayoutConfig struct {
	ModulesDir string `yaml:"modules_dir"`
	ToolsDir   string `yaml:"tools_dir"`
	ConfigDir  string `yaml:"config_dir"`
	DataDir    string `yaml:"data_dir"`
}

// RuntimeConfig configures the orchestration runtime CLI. Timeout is a
// duration string like "120s".
type RuntimeConfig struct {
	Binary  string `yaml:"binary"`
	Timeout string `yaml:"timeout"`
}

// LoggingConfig configures the slog setup.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuditConfig configures the lifecycle audit trail.
type AuditConfig struct {
	// Database is the SQLite file holding audit events. Empty disables
	// persistence.
	Database string `yaml:"database"`

	// NATSURL enables event fan-out when set.
	NATSURL string `yaml:"nats_url"`

	// NATSSubjectPrefix overrides the default stackctl.events prefix.
	NATSSubjectPrefix string `yaml:"nats_subject_prefix"`
}

// DaemonConfig configures the monitoring daemon.
type DaemonConfig struct {
	// MetricsListen is the address of the Prometheus /metrics endpoint.
	MetricsListen string `yaml:"metrics_listen"`

	// HealthInterval is the period of the health sweep over all modules,
	// as a duration string like "30s".
	HealthInterval string `yaml:"health_interval"`

	// WatchEntities enables filesystem watching of the entity roots.
	WatchEntities bool `yaml:"watch_entities"`
}

// Load reads the configuration file, overlays .env, and applies defaults.
// A missing config file is not an error; the defaults describe a stack
// rooted at the current directory.
func Load(path string) (*Config, error) {
	// Overlay both env files; godotenv.Load never clobbers variables the
	// process or an earlier file already set.
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
		}
	}

	cfg := &Config{}
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path comes from the CLI flag
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			c.Root = wd
		} else {
			c.Root = "."
		}
	}
	if c.ProjectPrefix == "" {
		c.ProjectPrefix = "llmstack"
	}
	if c.Layout.ModulesDir == "" {
		c.Layout.ModulesDir = "modules"
	}
	if c.Layout.ToolsDir == "" {
		c.Layout.ToolsDir = "tools"
	}
	if c.Layout.ConfigDir == "" {
		c.Layout.ConfigDir = "config"
	}
	if c.Layout.DataDir == "" {
		c.Layout.DataDir = "data"
	}
	if c.Runtime.Binary == "" {
		c.Runtime.Binary = "docker"
	}
	if c.Runtime.Timeout == "" {
		c.Runtime.Timeout = "120s"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Daemon.MetricsListen == "" {
		c.Daemon.MetricsListen = ":9834"
	}
	if c.Daemon.HealthInterval == "" {
		c.Daemon.HealthInterval = "30s"
	}
}

func (c *Config) validate() error {
	if info, err := os.Stat(c.Root); err != nil || !info.IsDir() {
		return fmt.Errorf("stack root is not a directory: %s", c.Root)
	}
	if _, err := time.ParseDuration(c.Runtime.Timeout); err != nil {
		return fmt.Errorf("invalid runtime timeout %q: %w", c.Runtime.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Daemon.HealthInterval); err != nil {
		return fmt.Errorf("invalid health interval %q: %w", c.Daemon.HealthInterval, err)
	}
	return nil
}

// RuntimeTimeout returns the parsed per-invocation runtime ceiling.
func (c *Config) RuntimeTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Runtime.Timeout)
	return d
}

// HealthInterval returns the parsed health sweep period.
func (c *Config) HealthInterval() time.Duration {
	d, _ := time.ParseDuration(c.Daemon.HealthInterval)
	return d
}

func (c *Config) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Root, dir)
}

// Paths resolves the layout into absolute entity paths.
func (c *Config) Paths() entity.Paths {
	return entity.Paths{
		ModulesDir: c.resolve(c.Layout.ModulesDir),
		ToolsDir:   c.resolve(c.Layout.ToolsDir),
		ConfigDir:  c.resolve(c.Layout.ConfigDir),
		DataDir:    c.resolve(c.Layout.DataDir),
	}
}

// AuditDatabase resolves the audit database path against the stack root.
func (c *Config) AuditDatabase() string {
	if c.Audit.Database == "" {
		return ""
	}
	return c.resolve(c.Audit.Database)
}
