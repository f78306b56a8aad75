// Package scaffold creates new entities from the kind's template directory.
package scaffold

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"log/slog"

	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/errors"
	"git.home.luguber.info/inful/stackctl/internal/logfields"
)

// Scaffolder instantiates entities by copying the template directory and
// substituting the entity name.
type Scaffolder struct {
	paths entity.Paths
}

// NewScaffolder creates a scaffolder over the given layout.
func NewScaffolder(paths entity.Paths) *Scaffolder {
	return &Scaffolder{paths: paths}
}

// Initialize creates a new entity from the kind's template. Text files have
// literal occurrences of "template" replaced with the entity name; binary
// files are copied untouched. Shell scripts keep their execute bit. The
// entity's data and config directories are created alongside. Any failure
// removes everything that was created before the error propagates.
func (s *Scaffolder) Initialize(kind entity.Kind, name string) error {
	if name == "" {
		return errors.InvalidArgument("entity name must not be empty")
	}
	if name == entity.TemplateName || strings.HasPrefix(name, ".") {
		return errors.InvalidArgument("entity name is reserved")
	}
	if !kind.IsValid() {
		return errors.InvalidArgument("unrecognized entity kind")
	}

	dest := s.paths.Dir(kind, name)
	if _, err := os.Stat(dest); err == nil {
		return errors.EntityAlreadyExists(kind.String(), name)
	}

	templateDir := s.paths.TemplateDir(kind)
	if info, err := os.Stat(templateDir); err != nil || !info.IsDir() {
		return errors.EntityInitializationError(kind.String(), name,
			errors.New(errors.CategoryFilesystem, errors.SeverityError, "template directory missing").
				WithContext("path", templateDir))
	}

	created := []string{dest}
	fail := func(cause error) error {
		s.cleanup(created)
		return errors.EntityInitializationError(kind.String(), name, cause)
	}

	if err := s.copyTree(templateDir, dest, name); err != nil {
		return fail(err)
	}

	configDir := s.paths.ConfigDirFor(kind, name)
	created = append(created, configDir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fail(err)
	}

	if kind == entity.KindModule {
		dataDir := s.paths.DataDirFor(name)
		created = append(created, dataDir)
		if err := os.MkdirAll(dataDir, 0o750); err != nil {
			return fail(err)
		}
	}

	if err := s.seedConfig(kind, name, dest); err != nil {
		return fail(err)
	}

	slog.Info("entity scaffolded",
		logfields.Kind(kind.String()), logfields.Entity(name), logfields.Path(dest))
	return nil
}

// copyTree copies the template into dest, substituting the entity name in
// text files as it goes.
func (s *Scaffolder) copyTree(src, dest, name string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, renamePath(rel, name))

		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path) // #nosec G304 -- walking the template tree
		if err != nil {
			return err
		}

		if utf8.Valid(data) {
			data = []byte(strings.ReplaceAll(string(data), entity.TemplateName, name))
		}

		mode := fs.FileMode(0o640)
		if strings.HasSuffix(target, ".sh") || info.Mode()&0o111 != 0 {
			mode = 0o750
		}
		return os.WriteFile(target, data, mode)
	})
}

// renamePath substitutes the template name in every path segment so files
// like template.yaml become <name>.yaml.
func renamePath(rel, name string) string {
	parts := strings.Split(rel, string(filepath.Separator))
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, entity.TemplateName, name)
	}
	return filepath.Join(parts...)
}

// seedConfig copies the scaffolded entity's default config file into the
// config location when the template shipped one and none exists yet.
func (s *Scaffolder) seedConfig(kind entity.Kind, name, dest string) error {
	var defaultFile string
	if kind == entity.KindTool {
		defaultFile = filepath.Join(dest, "config", entity.ToolConfigFile)
	} else {
		defaultFile = filepath.Join(dest, "config", entity.ModuleConfigFile)
	}

	data, err := os.ReadFile(defaultFile) // #nosec G304 -- path is derived from the stack layout
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	target := s.paths.ConfigFile(kind, name)
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o600)
}

func (s *Scaffolder) cleanup(dirs []string) {
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("scaffold cleanup incomplete", logfields.Path(dir), logfields.Error(err))
		}
	}
}
