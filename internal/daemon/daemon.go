// Package daemon runs the background monitor: a periodic health sweep over
// all modules, a filesystem watcher on the entity roots, and the Prometheus
// metrics endpoint.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/stackctl/internal/config"
	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/lifecycle"
	"git.home.luguber.info/inful/stackctl/internal/logfields"
	"git.home.luguber.info/inful/stackctl/internal/metrics"
)

// Daemon supervises the monitoring loops. It owns no lifecycle decisions;
// it only observes and exports.
type Daemon struct {
	cfg     *config.Config
	manager *lifecycle.Manager
	reg     *prom.Registry

	scheduler gocron.Scheduler
	watcher   *entityWatcher
	server    *http.Server
}

// New assembles a daemon. The Prometheus registry must be the one the
// manager's recorder was built against so the sweep and the operation
// metrics share an endpoint.
func New(cfg *config.Config, manager *lifecycle.Manager, reg *prom.Registry) (*Daemon, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Daemon{
		cfg:       cfg,
		manager:   manager,
		reg:       reg,
		scheduler: scheduler,
	}, nil
}

// Run starts all loops and blocks until the context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	interval := d.cfg.HealthInterval()
	if _, err := d.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(d.healthSweep, ctx),
		gocron.WithName("health-sweep"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	); err != nil {
		return fmt.Errorf("failed to schedule health sweep: %w", err)
	}
	d.scheduler.Start()
	slog.Info("health sweep scheduled", slog.Duration("interval", interval))

	if d.cfg.Daemon.WatchEntities {
		watcher, err := newEntityWatcher(d.manager.Entities())
		if err != nil {
			return err
		}
		d.watcher = watcher
		d.watcher.Start(ctx)
	}

	d.server = &http.Server{
		Addr:              d.cfg.Daemon.MetricsListen,
		Handler:           d.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics endpoint listening", slog.String("addr", d.server.Addr))
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		d.shutdown()
		return err
	}

	d.shutdown()
	return nil
}

func (d *Daemon) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (d *Daemon) shutdown() {
	slog.Info("daemon shutting down")

	if err := d.scheduler.Shutdown(); err != nil {
		slog.Error("scheduler shutdown failed", logfields.Error(err))
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.server.Shutdown(ctx); err != nil {
			slog.Error("metrics server shutdown failed", logfields.Error(err))
		}
	}
}

// healthSweep refreshes the status gauge of every module. Status errors
// are logged per entity and never abort the sweep.
func (d *Daemon) healthSweep(ctx context.Context) {
	names := d.manager.Entities().List(entity.KindModule)
	for _, name := range names {
		status, err := d.manager.Status(ctx, entity.KindModule, name)
		if err != nil {
			slog.Warn("health sweep status failed",
				logfields.Entity(name), logfields.Error(err))
			continue
		}
		if status == lifecycle.StatusError {
			slog.Warn("module in error state",
				logfields.Entity(name), logfields.Status(status.String()))
		}
	}
	slog.Debug("health sweep complete", slog.Int("modules", len(names)))
}
