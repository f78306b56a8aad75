package lifecycle

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"log/slog"

	"git.home.luguber.info/inful/stackctl/internal/logfields"
)

// scriptTimeout bounds a single script invocation when the caller's
// context carries no deadline of its own.
const scriptTimeout = 5 * time.Minute

// isExecutable reports whether path exists as a regular file with an
// execute bit set.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Mode()&0o111 != 0
}

// runScript executes an entity script with the entity directory as working
// directory. Stdout and stderr are merged into the returned output. Extra
// environment entries are appended to the inherited environment.
func runScript(ctx context.Context, path, dir string, env map[string]string, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, scriptTimeout)
		defer cancel()
	}

	// #nosec G204 -- path is derived from the stack layout, not user input
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	slog.Debug("entity script executed",
		logfields.Path(path),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())),
		logfields.Error(err))

	if err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			return out.String(), fmt.Errorf("script %s: %w", path, err)
		}
		return out.String(), fmt.Errorf("script %s: %w: %s", path, err, msg)
	}
	return out.String(), nil
}
