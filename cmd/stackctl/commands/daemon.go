package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"log/slog"

	"git.home.luguber.info/inful/stackctl/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	app, cleanup, err := newApp(root, true)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mon, err := daemon.New(app.Cfg, app.Manager, app.Registry)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	slog.Info("daemon started, waiting for shutdown signal")
	if err := mon.Run(ctx); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}
	slog.Info("daemon stopped")
	return nil
}
