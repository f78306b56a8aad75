package compose

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"log/slog"

	"git.home.luguber.info/inful/stackctl/internal/errors"
	"git.home.luguber.info/inful/stackctl/internal/logfields"
)

// CLIRuntime drives the docker compose CLI. It is stateless; every call
// spawns a fresh process with the project and manifest pinned on the
// command line so no working-directory or env leakage can occur.
type CLIRuntime struct {
	// Binary is the container CLI, normally "docker".
	Binary string
	// Timeout bounds a single CLI invocation when the caller's context
	// carries no deadline of its own.
	Timeout time.Duration
}

// NewCLIRuntime returns a runtime using the docker binary with a 120s
// per-invocation ceiling. Image pulls on first up can be slow.
func NewCLIRuntime() *CLIRuntime {
	return &CLIRuntime{Binary: "docker", Timeout: 120 * time.Second}
}

func (c *CLIRuntime) run(ctx context.Context, env map[string]string, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok && c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	// #nosec G204 -- binary is configuration, args are built from the stack layout
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	slog.Debug("runtime cli invocation",
		slog.String("args", strings.Join(args, " ")),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())),
		logfields.Error(err))

	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stdout.String(), fmt.Errorf("%s %s: %s", c.Binary, args[0], msg)
	}
	return stdout.String(), nil
}

func (c *CLIRuntime) composeArgs(project, manifestPath string, rest ...string) []string {
	args := []string{"compose", "-p", project, "-f", manifestPath}
	return append(args, rest...)
}

// Available probes the runtime with a version call. Failure is wrapped as
// a retryable runtime error.
func (c *CLIRuntime) Available(ctx context.Context) error {
	if _, err := c.run(ctx, nil, "compose", "version"); err != nil {
		return errors.RuntimeUnavailable(err)
	}
	return nil
}

// Up starts the project's services detached.
func (c *CLIRuntime) Up(ctx context.Context, project, manifestPath string, env map[string]string) error {
	_, err := c.run(ctx, env, c.composeArgs(project, manifestPath, "up", "-d")...)
	return err
}

// Down stops and removes the project's containers, keeping volumes.
func (c *CLIRuntime) Down(ctx context.Context, project, manifestPath string) error {
	_, err := c.run(ctx, nil, c.composeArgs(project, manifestPath, "down")...)
	return err
}

// Counts derives Total from the manifest and Running from ps output.
func (c *CLIRuntime) Counts(ctx context.Context, project, manifestPath string) (Counts, error) {
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return Counts{}, err
	}

	out, err := c.run(ctx, nil, c.composeArgs(project, manifestPath, "ps", "--status", "running", "-q")...)
	if err != nil {
		return Counts{}, errors.RuntimeUnavailable(err)
	}

	running := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			running++
		}
	}
	return Counts{Total: len(manifest.Services), Running: running}, nil
}

// Logs returns service logs without follow.
func (c *CLIRuntime) Logs(ctx context.Context, project, manifestPath, service string, tail int) (string, error) {
	args := []string{"logs", "--no-color"}
	if tail > 0 {
		args = append(args, "--tail", fmt.Sprintf("%d", tail))
	}
	if service != "" {
		args = append(args, service)
	}
	return c.run(ctx, nil, c.composeArgs(project, manifestPath, args...)...)
}

// ContainerID resolves the container backing a service. A service with no
// container yields "" without error.
func (c *CLIRuntime) ContainerID(ctx context.Context, project, manifestPath, service string) (string, error) {
	out, err := c.run(ctx, nil, c.composeArgs(project, manifestPath, "ps", "-q", service)...)
	if err != nil {
		return "", errors.RuntimeUnavailable(err)
	}
	return strings.TrimSpace(out), nil
}

// ContainerHealth inspects a container's healthcheck state. Containers
// without a healthcheck report "none", mirroring the inspect template.
func (c *CLIRuntime) ContainerHealth(ctx context.Context, containerID string) (string, error) {
	out, err := c.run(ctx, nil,
		"inspect", "--format", "{{if .State.Health}}{{.State.Health.Status}}{{else}}none{{end}}", containerID)
	if err != nil {
		return "", errors.RuntimeUnavailable(err)
	}
	return strings.TrimSpace(out), nil
}

var _ Runtime = (*CLIRuntime)(nil)
