package daemon

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/stackctl/internal/entity"
	"git.home.luguber.info/inful/stackctl/internal/logfields"
)

// entityWatcher monitors the module and tool roots for entities appearing
// or disappearing. Discovery itself stays filesystem-backed; the watcher
// only surfaces changes in the log so operators see drift without polling.
type entityWatcher struct {
	entities *entity.Registry
	watcher  *fsnotify.Watcher
	stopChan chan struct{}

	known map[entity.Kind][]string
}

func newEntityWatcher(entities *entity.Registry) (*entityWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &entityWatcher{
		entities: entities,
		watcher:  watcher,
		stopChan: make(chan struct{}),
		known: map[entity.Kind][]string{
			entity.KindModule: entities.List(entity.KindModule),
			entity.KindTool:   entities.List(entity.KindTool),
		},
	}, nil
}

// Start watches both entity roots. A root that does not exist yet is
// skipped with a warning; it can be picked up on daemon restart.
func (w *entityWatcher) Start(ctx context.Context) {
	for _, kind := range []entity.Kind{entity.KindModule, entity.KindTool} {
		root := w.entities.Paths().Root(kind)
		if err := w.watcher.Add(root); err != nil {
			slog.Warn("entity root not watchable",
				logfields.Kind(kind.String()), logfields.Path(root), logfields.Error(err))
			continue
		}
		slog.Info("watching entity root",
			logfields.Kind(kind.String()), logfields.Path(root))
	}

	go w.loop(ctx)
}

func (w *entityWatcher) Stop() {
	close(w.stopChan)
	if err := w.watcher.Close(); err != nil {
		slog.Error("error closing file watcher", logfields.Error(err))
	}
}

func (w *entityWatcher) loop(ctx context.Context) {
	// Debounce bursts; scaffolding creates many files at once.
	var pending *time.Timer
	rescan := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(500*time.Millisecond, func() {
				select {
				case rescan <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("entity watcher error", logfields.Error(err))
		case <-rescan:
			w.diff()
		}
	}
}

func (w *entityWatcher) diff() {
	for _, kind := range []entity.Kind{entity.KindModule, entity.KindTool} {
		current := w.entities.List(kind)
		added, removed := diffNames(w.known[kind], current)
		for _, name := range added {
			slog.Info("entity appeared", logfields.Kind(kind.String()), logfields.Entity(name))
		}
		for _, name := range removed {
			slog.Info("entity removed", logfields.Kind(kind.String()), logfields.Entity(name))
		}
		w.known[kind] = current
	}
}

// diffNames compares two sorted name lists.
func diffNames(before, after []string) (added, removed []string) {
	i, j := 0, 0
	for i < len(before) && j < len(after) {
		switch {
		case before[i] == after[j]:
			i++
			j++
		case before[i] < after[j]:
			removed = append(removed, before[i])
			i++
		default:
			added = append(added, after[j])
			j++
		}
	}
	removed = append(removed, before[i:]...)
	added = append(added, after[j:]...)
	return added, removed
}
