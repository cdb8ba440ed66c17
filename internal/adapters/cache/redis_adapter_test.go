package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/snacktacular/backend/internal/infrastructure/clients/redis"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

func TestRedisAdapter_Key(t *testing.T) {
	assert.Equal(t, "snacktacular:user:1", (&RedisAdapter{namespace: "snacktacular"}).key("user:1"))
	assert.Equal(t, "user:1", (&RedisAdapter{}).key("user:1"))
}

func TestRedisAdapter_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	a := NewRedisAdapter(redisclient.NewFromRedis(rdb), "test-"+time.Now().Format("150405.000"))

	_, err := a.Get(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, a.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := a.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := a.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Delete(ctx, "k"))
	ok, err = a.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
