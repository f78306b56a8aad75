// Package entity defines the on-disk conventions for managed entities and
// the filesystem-backed registry that discovers them.
//
// Two kinds of entity exist: long-running modules, typically backed by a
// docker-compose manifest, and invocable tools driven by a main script.
// Entities are never persisted as objects; the registry recomputes the
// entity list from the filesystem on every query.
package entity

import "path/filepath"

// Kind distinguishes the two entity flavors.
type Kind string

const (
	KindModule Kind = "module"
	KindTool   Kind = "tool"
)

// String returns the string representation of the kind.
func (k Kind) String() string { return string(k) }

// IsValid returns true if the kind is recognized.
func (k Kind) IsValid() bool {
	return k == KindModule || k == KindTool
}

// TemplateName is the reserved directory name used as the scaffolding source.
// It is excluded from discovery.
const TemplateName = "template"

// Well-known file names inside an entity directory.
const (
	ManifestFile       = "docker-compose.yml"
	SetupScriptFile    = "setup.sh"
	TeardownScriptFile = "teardown.sh"
	MainScriptFile     = "main.sh"
	ModuleConfigFile   = "env.conf"
	ToolConfigFile     = "config.yaml"
	VersionFile        = "VERSION"
)

// Paths holds the root directories of the stack layout. Module configuration
// and data live outside the module directory (config/<name>/, data/<name>/);
// tool configuration lives inside the tool directory (tools/<name>/config/).
type Paths struct {
	ModulesDir string
	ToolsDir   string
	ConfigDir  string
	DataDir    string
}

// Root returns the discovery root for a kind.
func (p Paths) Root(kind Kind) string {
	if kind == KindTool {
		return p.ToolsDir
	}
	return p.ModulesDir
}

// Dir returns the directory of an entity.
func (p Paths) Dir(kind Kind, name string) string {
	return filepath.Join(p.Root(kind), name)
}

// TemplateDir returns the scaffolding source directory for a kind.
func (p Paths) TemplateDir(kind Kind) string {
	return filepath.Join(p.Root(kind), TemplateName)
}

// Manifest returns the compose manifest path of a module. Presence of this
// file signals a runtime-managed lifecycle.
func (p Paths) Manifest(kind Kind, name string) string {
	return filepath.Join(p.Dir(kind, name), ManifestFile)
}

// SetupScript returns the script executed on start when no manifest exists.
func (p Paths) SetupScript(kind Kind, name string) string {
	return filepath.Join(p.Dir(kind, name), "scripts", SetupScriptFile)
}

// TeardownScript returns the script executed on stop when no manifest exists.
func (p Paths) TeardownScript(kind Kind, name string) string {
	return filepath.Join(p.Dir(kind, name), "scripts", TeardownScriptFile)
}

// MainScript returns the fallback execution entry point of a tool.
func (p Paths) MainScript(name string) string {
	return filepath.Join(p.ToolsDir, name, MainScriptFile)
}

// ConfigFile returns the persisted configuration file for an entity.
func (p Paths) ConfigFile(kind Kind, name string) string {
	if kind == KindTool {
		return filepath.Join(p.ToolsDir, name, "config", ToolConfigFile)
	}
	return filepath.Join(p.ConfigDir, name, ModuleConfigFile)
}

// ConfigDirFor returns the directory holding an entity's configuration file.
func (p Paths) ConfigDirFor(kind Kind, name string) string {
	return filepath.Dir(p.ConfigFile(kind, name))
}

// DataDirFor returns the data directory of a module. For script-managed
// modules its existence doubles as the "has been set up" marker.
func (p Paths) DataDirFor(name string) string {
	return filepath.Join(p.DataDir, name)
}

// TestsDir returns the directory holding a tool's test scripts
// (tests/unit/test_*.sh, tests/integration/test_*.sh).
func (p Paths) TestsDir(name string) string {
	return filepath.Join(p.ToolsDir, name, "tests")
}

// Version returns the path of a module's VERSION file.
func (p Paths) Version(kind Kind, name string) string {
	return filepath.Join(p.Dir(kind, name), VersionFile)
}
