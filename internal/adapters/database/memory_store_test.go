package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snacktacular/backend/pkg/document"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	id, err := store.Add(ctx, "spots", document.Document{"name": "Deli"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap, err := store.Get(ctx, "spots", id)
	require.NoError(t, err)
	assert.Equal(t, "Deli", snap.Data.String("name", ""))

	require.NoError(t, store.Set(ctx, "spots", id, document.Document{"name": "Bagels"}))
	snap, err = store.Get(ctx, "spots", id)
	require.NoError(t, err)
	assert.Equal(t, "Bagels", snap.Data.String("name", ""))

	require.NoError(t, store.Delete(ctx, "spots", id))
	_, err = store.Get(ctx, "spots", id)
	assert.True(t, apperrors.IsNotFound(err))

	assert.NoError(t, store.Delete(ctx, "spots", id))
}

func TestMemoryStore_IsolatesCallerMaps(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	doc := document.Document{"name": "Deli"}
	require.NoError(t, store.Set(ctx, "spots", "a", doc))
	doc["name"] = "changed"

	snap, err := store.Get(ctx, "spots", "a")
	require.NoError(t, err)
	snap.Data["name"] = "changed again"

	again, err := store.Get(ctx, "spots", "a")
	require.NoError(t, err)
	assert.Equal(t, "Deli", again.Data.String("name", ""))
}

func TestMemoryStore_SubcollectionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "spots/a/reviews", "r1", document.Document{"rating": 5}))
	require.NoError(t, store.Set(ctx, "spots/b/reviews", "r2", document.Document{"rating": 1}))

	docs, err := store.List(ctx, "spots/a/reviews")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "r1", docs[0].ID)
}

func TestMemoryStore_SetRequiresID(t *testing.T) {
	err := NewMemoryStore().Set(context.Background(), "spots", "", document.Document{})
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

type snapshotRecorder struct {
	mu    sync.Mutex
	calls [][]document.Snapshot
}

func (r *snapshotRecorder) handle(docs []document.Snapshot, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, docs)
}

func (r *snapshotRecorder) last() []document.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestMemoryStore_ListenDeliversInitialAndChanges(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "spots", "a", document.Document{"name": "A"}))

	rec := &snapshotRecorder{}
	sub, err := store.Listen(ctx, "spots", rec.handle)
	require.NoError(t, err)
	defer sub.Stop()

	require.Eventually(t, func() bool { return len(rec.last()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Set(ctx, "spots", "b", document.Document{"name": "B"}))
	require.Eventually(t, func() bool { return len(rec.last()) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Delete(ctx, "spots", "a"))
	require.Eventually(t, func() bool {
		docs := rec.last()
		return len(docs) == 1 && docs[0].ID == "b"
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryStore_StopHaltsDelivery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := &snapshotRecorder{}
	sub, err := store.Listen(ctx, "spots", rec.handle)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	sub.Stop()
	sub.Stop()
	assert.Equal(t, 0, store.hub.count("spots"))

	require.NoError(t, store.Set(ctx, "spots", "a", document.Document{}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestMemoryStore_ListenEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemoryStore()

	rec := &snapshotRecorder{}
	_, err := store.Listen(ctx, "spots", rec.handle)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return store.hub.count("spots") == 0 }, time.Second, 5*time.Millisecond)
}
