// Package events records the audit trail of lifecycle operations. Every
// mutation (start, stop, restart, scaffold, config change, tool run) is
// appended to a SQLite-backed store and optionally published to NATS for
// external consumers.
package events

import (
	"context"
	"time"
)

// Event is one audit record. ID is assigned by the recorder at append time.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Kind      string            `json:"kind"`
	Entity    string            `json:"entity"`
	Operation string            `json:"operation"`
	Outcome   string            `json:"outcome"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Outcome values.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Store persists and retrieves audit events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, e Event) error

	// ByEntity retrieves all events for one entity, oldest first.
	ByEntity(ctx context.Context, kind, entity string) ([]Event, error)

	// Recent retrieves the newest events, newest first, capped at limit.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
