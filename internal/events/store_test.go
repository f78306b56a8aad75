package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndQueryByEntity(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{
		ID: "a", Timestamp: time.Now(), Kind: "module", Entity: "ollama",
		Operation: "start", Outcome: OutcomeSuccess,
	}))
	require.NoError(t, store.Append(ctx, Event{
		ID: "b", Timestamp: time.Now(), Kind: "module", Entity: "ollama",
		Operation: "stop", Outcome: OutcomeSuccess,
		Detail: map[string]string{"reason": "maintenance"},
	}))
	require.NoError(t, store.Append(ctx, Event{
		ID: "c", Timestamp: time.Now(), Kind: "tool", Entity: "doc-sync",
		Operation: "run", Outcome: OutcomeFailed,
	}))

	got, err := store.ByEntity(ctx, "module", "ollama")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "start", got[0].Operation)
	assert.Equal(t, "stop", got[1].Operation)
	assert.Equal(t, "maintenance", got[1].Detail["reason"])
}

func TestRecentNewestFirst(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	for _, op := range []string{"start", "stop", "restart"} {
		require.NoError(t, store.Append(ctx, Event{
			ID: op, Timestamp: time.Now(), Kind: "module", Entity: "ollama",
			Operation: op, Outcome: OutcomeSuccess,
		}))
	}

	got, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "restart", got[0].Operation)
	assert.Equal(t, "stop", got[1].Operation)
}

func TestRecentEmptyStore(t *testing.T) {
	store := memStore(t)

	got, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecorderAssignsIDs(t *testing.T) {
	store := memStore(t)
	rec := NewRecorder(store, nil)

	rec.Record(context.Background(), Event{Kind: "module", Entity: "ollama", Operation: "start", Outcome: OutcomeSuccess})

	got, err := store.ByEntity(context.Background(), "module", "ollama")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), Event{})
	assert.NoError(t, rec.Close())
}
