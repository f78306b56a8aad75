package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/stackctl/internal/logfields"
)

// Recorder assigns identities to audit events and fans them out to the
// store and the optional publisher. Recording failures are logged, never
// propagated; an audit problem must not fail the operation it describes.
type Recorder struct {
	store     Store
	publisher *NATSPublisher
}

// NewRecorder creates a recorder. Store may be nil (no persistence) and
// publisher may be nil (no fan-out); a zero Recorder is a no-op.
func NewRecorder(store Store, publisher *NATSPublisher) *Recorder {
	return &Recorder{store: store, publisher: publisher}
}

// Record stamps and dispatches one event.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if r == nil {
		return
	}
	e.ID = uuid.NewString()
	e.Timestamp = time.Now()

	if r.store != nil {
		if err := r.store.Append(ctx, e); err != nil {
			slog.Error("audit event not persisted",
				logfields.Kind(e.Kind), logfields.Entity(e.Entity),
				logfields.Operation(e.Operation), logfields.Error(err))
		}
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(e); err != nil {
			slog.Warn("audit event not published",
				logfields.Kind(e.Kind), logfields.Entity(e.Entity),
				logfields.Operation(e.Operation), logfields.Error(err))
		}
	}
}

// Close releases the store and publisher.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	var firstErr error
	if r.publisher != nil {
		if err := r.publisher.Close(); err != nil {
			firstErr = err
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
