package database

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snacktacular/backend/internal/domain/providers"
	mongoclient "github.com/snacktacular/backend/internal/infrastructure/clients/mongo"
	"github.com/snacktacular/backend/pkg/config"
	"github.com/snacktacular/backend/pkg/document"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// exerciseStore runs the shared DocumentStore contract against a live backend
func exerciseStore(t *testing.T, store providers.DocumentStore) {
	ctx := context.Background()
	collection := "spots/" + uuid.NewString() + "/reviews"

	rec := &snapshotRecorder{}
	sub, err := store.Listen(ctx, collection, rec.handle)
	require.NoError(t, err)
	defer sub.Stop()
	require.Eventually(t, func() bool { return rec.count() >= 1 }, 5*time.Second, 20*time.Millisecond)

	id, err := store.Add(ctx, collection, document.Document{"title": "Good", "rating": 4})
	require.NoError(t, err)

	snap, err := store.Get(ctx, collection, id)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Data.Int("rating", 0))

	require.Eventually(t, func() bool { return len(rec.last()) == 1 }, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, store.Delete(ctx, collection, id))
	_, err = store.Get(ctx, collection, id)
	assert.True(t, apperrors.IsNotFound(err))
	require.Eventually(t, func() bool { return len(rec.last()) == 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	client, err := mongoclient.NewClient(context.Background(), &config.MongoConfig{URI: uri, Database: "snacktacular_test"})
	require.NoError(t, err)
	defer client.Close(context.Background())

	store := NewMongoStore(client, false)
	require.NoError(t, store.EnsureIndexes(context.Background()))
	exerciseStore(t, store)
}

func TestFirestoreStore_Integration(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "snacktacular-test")
	require.NoError(t, err)
	defer client.Close()

	exerciseStore(t, NewFirestoreStore(client))
}
