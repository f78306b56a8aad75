package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "stackctl.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "llmstack", cfg.ProjectPrefix)
	assert.Equal(t, "docker", cfg.Runtime.Binary)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, cfg.HealthInterval())
	assert.Equal(t, 120*time.Second, cfg.RuntimeTimeout())
	assert.NotEmpty(t, cfg.Root)
}

func TestLoadFromFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "stackctl.yaml")
	content := `
root: ` + root + `
project_prefix: mystack
layout:
  modules_dir: stack/modules
runtime:
  timeout: 45s
logging:
  level: debug
  format: json
audit:
  database: state/audit.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mystack", cfg.ProjectPrefix)
	assert.Equal(t, 45*time.Second, cfg.RuntimeTimeout())
	assert.Equal(t, "debug", cfg.Logging.Level)

	paths := cfg.Paths()
	assert.Equal(t, filepath.Join(root, "stack/modules"), paths.ModulesDir)
	assert.Equal(t, filepath.Join(root, "tools"), paths.ToolsDir)
	assert.Equal(t, filepath.Join(root, "state/audit.db"), cfg.AuditDatabase())
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("STACKCTL_TEST_PREFIX", "envstack")
	root := t.TempDir()
	path := filepath.Join(root, "stackctl.yaml")
	require.NoError(t, os.WriteFile(path,
		[]byte("root: "+root+"\nproject_prefix: ${STACKCTL_TEST_PREFIX}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "envstack", cfg.ProjectPrefix)
}

func TestLoadOverlaysBothEnvFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte("STACKCTL_TEST_ENV_BASE=from-env\n"), 0o600))
	require.NoError(t, os.WriteFile(".env.local", []byte("STACKCTL_TEST_ENV_LOCAL=from-local\n"), 0o600))
	defer os.Unsetenv("STACKCTL_TEST_ENV_BASE")
	defer os.Unsetenv("STACKCTL_TEST_ENV_LOCAL")

	path := filepath.Join(dir, "stackctl.yaml")
	require.NoError(t, os.WriteFile(path,
		[]byte("root: "+dir+"\nproject_prefix: ${STACKCTL_TEST_ENV_BASE}-${STACKCTL_TEST_ENV_LOCAL}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env-from-local", cfg.ProjectPrefix)
}

func TestLoadRejectsBadRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stackctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: /nonexistent/stack/root\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAuditDatabaseEmptyWhenDisabled(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "stackctl.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.AuditDatabase())
}
