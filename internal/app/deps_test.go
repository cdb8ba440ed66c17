package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snacktacular/backend/internal/adapters/cache"
	"github.com/snacktacular/backend/internal/adapters/storage"
	"github.com/snacktacular/backend/pkg/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Store:   config.StoreConfig{Backend: config.StoreBackendMemory},
		Auth:    config.AuthConfig{StaticTokens: []string{"t1=alice:alice@example.com"}},
		Ratings: config.RatingsConfig{PersistAttempts: 1},
	}
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()
	deps, err := Open(ctx, memoryConfig(), Options{BlobBaseURL: "/blobs"})
	require.NoError(t, err)
	defer deps.Close()

	require.NotNil(t, deps.Store)
	assert.IsType(t, &storage.MemoryBlobStore{}, deps.Blobs)
	assert.IsType(t, &cache.MemoryCache{}, deps.Cache)
	assert.Nil(t, deps.Notifier)
	assert.Nil(t, deps.SpotSearch())

	p, err := deps.Identity.Verify(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)

	id, err := deps.Store.Add(ctx, "spots", map[string]interface{}{"name": "Deli"})
	require.NoError(t, err)
	snap, err := deps.Store.Get(ctx, "spots", id)
	require.NoError(t, err)
	assert.Equal(t, "Deli", snap.Data.String("name", ""))
}

func TestOpen_StoreOnly(t *testing.T) {
	deps, err := Open(context.Background(), memoryConfig(), Options{StoreOnly: true})
	require.NoError(t, err)
	defer deps.Close()

	assert.NotNil(t, deps.Store)
	assert.Nil(t, deps.Blobs)
	assert.Nil(t, deps.Identity)
}

func TestOpen_BadStaticTokens(t *testing.T) {
	cfg := memoryConfig()
	cfg.Auth.StaticTokens = []string{"no-separator"}

	_, err := Open(context.Background(), cfg, Options{})
	assert.Error(t, err)
}

func TestDepsClose_ReverseOrder(t *testing.T) {
	var order []int
	d := &Deps{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return nil },
	}}
	require.NoError(t, d.Close())
	assert.Equal(t, []int{2, 1}, order)
}
