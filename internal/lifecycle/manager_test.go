package lifecycle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stackctl/internal/capability"
	"git.home.luguber.info/inful/stackctl/internal/compose"
	"git.home.luguber.info/inful/stackctl/internal/configstore"
	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/errors"
)

const testManifest = `services:
  api:
    image: test/api:1
  db:
    image: test/db:1
  cache:
    image: test/cache:1
`

type fakeRuntime struct {
	counts    compose.Counts
	countsErr error

	upErr   error
	downErr error

	upCalls   int
	downCalls int

	logsOut      string
	containerIDs map[string]string
	health       map[string]string
}

func (f *fakeRuntime) Available(context.Context) error { return f.countsErr }

func (f *fakeRuntime) Up(context.Context, string, string, map[string]string) error {
	f.upCalls++
	return f.upErr
}

func (f *fakeRuntime) Down(context.Context, string, string) error {
	f.downCalls++
	return f.downErr
}

func (f *fakeRuntime) Counts(context.Context, string, string) (compose.Counts, error) {
	if f.countsErr != nil {
		return compose.Counts{}, f.countsErr
	}
	return f.counts, nil
}

func (f *fakeRuntime) Logs(context.Context, string, string, string, int) (string, error) {
	return f.logsOut, nil
}

func (f *fakeRuntime) ContainerID(_ context.Context, _, _, service string) (string, error) {
	return f.containerIDs[service], nil
}

func (f *fakeRuntime) ContainerHealth(_ context.Context, id string) (string, error) {
	return f.health[id], nil
}

type fixture struct {
	manager *Manager
	paths   entity.Paths
	runtime *fakeRuntime
	caps    *capability.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	paths := entity.Paths{
		ModulesDir: filepath.Join(base, "modules"),
		ToolsDir:   filepath.Join(base, "tools"),
		ConfigDir:  filepath.Join(base, "config"),
		DataDir:    filepath.Join(base, "data"),
	}
	require.NoError(t, os.MkdirAll(paths.ModulesDir, 0o750))
	require.NoError(t, os.MkdirAll(paths.ToolsDir, 0o750))

	entities := entity.NewRegistry(paths)
	caps := capability.NewRegistry()
	runtime := &fakeRuntime{}

	manager := NewManager(Options{
		Entities:      entities,
		Capabilities:  capability.NewResolver(caps, entities),
		Runtime:       runtime,
		Configs:       configstore.NewStore(paths),
		ProjectPrefix: "teststack",
	})
	return &fixture{manager: manager, paths: paths, runtime: runtime, caps: caps}
}

func (f *fixture) addModule(t *testing.T, name string, withManifest bool) {
	t.Helper()
	dir := filepath.Join(f.paths.ModulesDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	if withManifest {
		require.NoError(t, os.WriteFile(filepath.Join(dir, entity.ManifestFile), []byte(testManifest), 0o600))
	}
}

func (f *fixture) addScript(t *testing.T, kind entity.Kind, name, file, body string) string {
	t.Helper()
	dir := filepath.Join(f.paths.Root(kind), name, "scripts")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestStatusScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("all containers running", func(t *testing.T) {
		f := newFixture(t)
		f.addModule(t, "ollama", true)
		f.runtime.counts = compose.Counts{Total: 3, Running: 3}

		status, err := f.manager.Status(ctx, entity.KindModule, "ollama")
		require.NoError(t, err)
		assert.Equal(t, StatusRunning, status)
	})

	t.Run("partial containers running", func(t *testing.T) {
		f := newFixture(t)
		f.addModule(t, "ollama", true)
		f.runtime.counts = compose.Counts{Total: 3, Running: 1}

		status, err := f.manager.Status(ctx, entity.KindModule, "ollama")
		require.NoError(t, err)
		assert.Equal(t, StatusError, status)
	})

	t.Run("no containers running", func(t *testing.T) {
		f := newFixture(t)
		f.addModule(t, "ollama", true)
		f.runtime.counts = compose.Counts{Total: 3, Running: 0}

		status, err := f.manager.Status(ctx, entity.KindModule, "ollama")
		require.NoError(t, err)
		assert.Equal(t, StatusStopped, status)
	})

	t.Run("runtime unreachable", func(t *testing.T) {
		f := newFixture(t)
		f.addModule(t, "ollama", true)
		f.runtime.countsErr = errors.RuntimeUnavailable(fmt.Errorf("cannot connect to docker daemon"))

		status, err := f.manager.Status(ctx, entity.KindModule, "ollama")
		require.NoError(t, err)
		assert.Equal(t, StatusUnknown, status)
	})

	t.Run("counting failure with reachable runtime", func(t *testing.T) {
		f := newFixture(t)
		f.addModule(t, "ollama", true)
		f.runtime.countsErr = fmt.Errorf("parsing manifest: yaml: mapping values are not allowed")

		status, err := f.manager.Status(ctx, entity.KindModule, "ollama")
		require.NoError(t, err)
		assert.Equal(t, StatusError, status)
	})

	t.Run("missing entity", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.Status(ctx, entity.KindModule, "ghost")
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryNotFound))
	})

	t.Run("script-managed module uses data dir marker", func(t *testing.T) {
		f := newFixture(t)
		f.addModule(t, "filestore", false)
		f.addScript(t, entity.KindModule, "filestore", entity.SetupScriptFile, "true")

		status, err := f.manager.Status(ctx, entity.KindModule, "filestore")
		require.NoError(t, err)
		assert.Equal(t, StatusStopped, status)

		require.NoError(t, os.MkdirAll(f.paths.DataDirFor("filestore"), 0o750))
		status, err = f.manager.Status(ctx, entity.KindModule, "filestore")
		require.NoError(t, err)
		assert.Equal(t, StatusRunning, status)
	})

	t.Run("module without manifest or setup script", func(t *testing.T) {
		f := newFixture(t)
		f.addModule(t, "bare", false)
		// A stray data directory must not fake a running state when the
		// module has no lifecycle path at all.
		require.NoError(t, os.MkdirAll(f.paths.DataDirFor("bare"), 0o750))

		status, err := f.manager.Status(ctx, entity.KindModule, "bare")
		require.NoError(t, err)
		assert.Equal(t, StatusUnknown, status)
	})
}

func TestStartIdempotentWhenRunning(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 3}

	require.NoError(t, f.manager.Start(context.Background(), entity.KindModule, "ollama"))
	assert.Zero(t, f.runtime.upCalls)
}

func TestStartCallsRuntimeUp(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 0}

	require.NoError(t, f.manager.Start(context.Background(), entity.KindModule, "ollama"))
	assert.Equal(t, 1, f.runtime.upCalls)
}

func TestStartRuntimeFailureIsLifecycleError(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 0}
	f.runtime.upErr = fmt.Errorf("port already allocated")

	err := f.manager.Start(context.Background(), entity.KindModule, "ollama")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLifecycle))
}

func TestStartViaSetupScript(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "filestore", false)
	marker := filepath.Join(t.TempDir(), "ran")
	f.addScript(t, entity.KindModule, "filestore", entity.SetupScriptFile, "touch "+marker)

	require.NoError(t, f.manager.Start(context.Background(), entity.KindModule, "filestore"))
	_, err := os.Stat(marker)
	assert.NoError(t, err)
	assert.Zero(t, f.runtime.upCalls)
}

func TestStartFailingScriptIsLifecycleError(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "filestore", false)
	f.addScript(t, entity.KindModule, "filestore", entity.SetupScriptFile, "exit 3")

	err := f.manager.Start(context.Background(), entity.KindModule, "filestore")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLifecycle))
}

func TestStartWithoutManifestOrScript(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "bare", false)

	err := f.manager.Start(context.Background(), entity.KindModule, "bare")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLifecycle))
}

func TestStopIdempotentWhenStopped(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 0}

	require.NoError(t, f.manager.Stop(context.Background(), entity.KindModule, "ollama"))
	assert.Zero(t, f.runtime.downCalls)
}

func TestStopCallsRuntimeDown(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 3}

	require.NoError(t, f.manager.Stop(context.Background(), entity.KindModule, "ollama"))
	assert.Equal(t, 1, f.runtime.downCalls)
}

func TestStopMissingTeardownTolerated(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "filestore", false)
	require.NoError(t, os.MkdirAll(f.paths.DataDirFor("filestore"), 0o750))

	require.NoError(t, f.manager.Stop(context.Background(), entity.KindModule, "filestore"))
}

func TestRestartStopsThenStarts(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 3}

	require.NoError(t, f.manager.Restart(context.Background(), entity.KindModule, "ollama"))
	assert.Equal(t, 1, f.runtime.downCalls)
	assert.Equal(t, 1, f.runtime.upCalls)
}

func TestRestartToleratesStopFailure(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 1}
	f.runtime.downErr = fmt.Errorf("container stuck")

	require.NoError(t, f.manager.Restart(context.Background(), entity.KindModule, "ollama"))
	assert.Equal(t, 1, f.runtime.upCalls)
}

func TestRestartEscalatesStartFailure(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 3}
	f.runtime.upErr = fmt.Errorf("image pull failed")

	err := f.manager.Restart(context.Background(), entity.KindModule, "ollama")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLifecycle))
}

func TestLogsRequireManifest(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.addModule(t, "filestore", false)
	f.runtime.logsOut = "api | listening on :8080\n"

	out, err := f.manager.Logs(context.Background(), entity.KindModule, "ollama", "", 100)
	require.NoError(t, err)
	assert.Contains(t, out, "listening")

	_, err = f.manager.Logs(context.Background(), entity.KindModule, "filestore", "", 100)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLifecycle))
}

func TestHealthFallbackEnumeratesServices(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 2}
	f.runtime.containerIDs = map[string]string{"api": "c-api", "db": "c-db"}
	f.runtime.health = map[string]string{"c-api": "healthy", "c-db": "none"}

	report, err := f.manager.Health(context.Background(), entity.KindModule, "ollama")
	require.NoError(t, err)
	assert.Equal(t, "error", report.StatusText)
	// cache has no container and is omitted; db has no healthcheck.
	require.Len(t, report.Services, 2)
	assert.Equal(t, "healthy", report.Services[0].State)
	assert.Equal(t, "running", report.Services[1].State)
	assert.Nil(t, report.InterfaceStatus)
}

type capModule struct {
	started, stopped int
	failStart        bool
}

func (c *capModule) Start() error {
	c.started++
	if c.failStart {
		return fmt.Errorf("capability start broken")
	}
	return nil
}
func (c *capModule) Stop() error { c.stopped++; return nil }
func (c *capModule) Status() (map[string]any, error) {
	return map[string]any{"connections": 7}, nil
}
func (c *capModule) Info() (capability.Info, error) {
	return capability.Info{
		Name: "ollama", Version: "2.1.0", Author: "platform",
		Config: map[string]any{"PORT": "11434"},
	}, nil
}

func TestCapabilityStartPreferred(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 0}

	mod := &capModule{}
	require.NoError(t, f.caps.Register(entity.KindModule, "ollama", func() (capability.Instance, error) {
		return mod, nil
	}))

	require.NoError(t, f.manager.Start(context.Background(), entity.KindModule, "ollama"))
	assert.Equal(t, 1, mod.started)
	assert.Zero(t, f.runtime.upCalls)
}

func TestCapabilityStartErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 0}

	require.NoError(t, f.caps.Register(entity.KindModule, "ollama", func() (capability.Instance, error) {
		return &capModule{failStart: true}, nil
	}))

	err := f.manager.Start(context.Background(), entity.KindModule, "ollama")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLifecycle))
	// No silent fallback to the runtime path.
	assert.Zero(t, f.runtime.upCalls)
}

func TestHealthPrefersCapabilityStatus(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 3}

	require.NoError(t, f.caps.Register(entity.KindModule, "ollama", func() (capability.Instance, error) {
		return &capModule{}, nil
	}))

	report, err := f.manager.Health(context.Background(), entity.KindModule, "ollama")
	require.NoError(t, err)
	assert.Equal(t, 7, report.InterfaceStatus["connections"])
	assert.Empty(t, report.Services)
}

func TestGetConfigPrefersCapability(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)

	require.NoError(t, f.caps.Register(entity.KindModule, "ollama", func() (capability.Instance, error) {
		return &capModule{}, nil
	}))
	// The file store holds a different value; the capability wins.
	require.NoError(t, f.manager.Configs().Set(entity.KindModule, "ollama", "PORT", "9999"))

	v, found, err := f.manager.GetConfig(entity.KindModule, "ollama", "PORT")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "11434", v)
}

func TestConfigRoundTripThroughManager(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)

	require.NoError(t, f.manager.SetConfig(entity.KindModule, "ollama", "PORT", "8080"))
	v, found, err := f.manager.GetConfig(entity.KindModule, "ollama", "PORT")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "8080", v)
}

func TestMetadataFromCapability(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)

	require.NoError(t, f.caps.Register(entity.KindModule, "ollama", func() (capability.Instance, error) {
		return &capModule{}, nil
	}))

	md, err := f.manager.Metadata(entity.KindModule, "ollama")
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", md.Version)
	assert.Equal(t, "platform", md.Author)
}

func TestMetadataFallbackFromFiles(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	require.NoError(t, os.WriteFile(
		filepath.Join(f.paths.ModulesDir, "ollama", entity.VersionFile), []byte("1.4.2\n"), 0o600))

	md, err := f.manager.Metadata(entity.KindModule, "ollama")
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", md.Version)
	assert.Equal(t, []string{"api", "cache", "db"}, md.Services)
}

func TestToolMetadataFallbackFromConfig(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.paths.ToolsDir, "doc-sync")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o750))
	content := `tool:
  version: 0.3.1
  description: Synchronizes documents between stores
  author: platform
`
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "config", entity.ToolConfigFile), []byte(content), 0o600))

	md, err := f.manager.Metadata(entity.KindTool, "doc-sync")
	require.NoError(t, err)
	assert.Equal(t, "0.3.1", md.Version)
	assert.Equal(t, "Synchronizes documents between stores", md.Description)
	assert.Equal(t, "platform", md.Author)
	assert.Equal(t, dir, md.Path)
}

func TestWaitForStatusTimesOut(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 0}

	err := f.manager.WaitForStatus(context.Background(), entity.KindModule, "ollama",
		StatusRunning, 30*time.Millisecond, 10*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryLifecycle))
}

func TestWaitForStatusSucceeds(t *testing.T) {
	f := newFixture(t)
	f.addModule(t, "ollama", true)
	f.runtime.counts = compose.Counts{Total: 3, Running: 3}

	require.NoError(t, f.manager.WaitForStatus(context.Background(), entity.KindModule, "ollama",
		StatusRunning, time.Second, 10*time.Millisecond))
}
