package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/snacktacular/backend/pkg/errors"
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "user:1", []byte("ann"), time.Minute))

	got, err := c.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("ann"), got)

	ok, _ := c.Exists(ctx, "user:1")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "user:1")
	assert.True(t, apperrors.IsNotFound(err))
	ok, _ = c.Exists(ctx, "user:1")
	assert.False(t, ok)
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.True(t, apperrors.IsNotFound(err))
}
