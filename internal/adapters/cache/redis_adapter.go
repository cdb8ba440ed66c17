package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snacktacular/backend/internal/domain/providers"
	redisclient "github.com/snacktacular/backend/internal/infrastructure/clients/redis"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// RedisAdapter is the shared CacheProvider used when Redis is configured.
// Keys are stored as "<namespace>:<key>" so several services can share a
// database.
type RedisAdapter struct {
	rdb       redis.Cmdable
	namespace string
}

var _ providers.CacheProvider = (*RedisAdapter)(nil)

func NewRedisAdapter(client *redisclient.Client, namespace string) *RedisAdapter {
	return &RedisAdapter{rdb: client.Client(), namespace: namespace}
}

func (a *RedisAdapter) key(key string) string {
	if a.namespace == "" {
		return key
	}
	return a.namespace + ":" + key
}

// Get reports a missing key as NOT_FOUND and any other failure as EXTERNAL
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := a.rdb.Get(ctx, a.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("cache miss: %s", key))
	case err != nil:
		return nil, apperrors.NewExternalError("cache read failed", err)
	}
	return value, nil
}

func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	// go-redis treats 0 as "no expiry" but -1 as KEEPTTL
	if ttl < 0 {
		ttl = 0
	}
	if err := a.rdb.Set(ctx, a.key(key), value, ttl).Err(); err != nil {
		return apperrors.NewExternalError("cache write failed", err)
	}
	return nil
}

func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.rdb.Del(ctx, a.key(key)).Err(); err != nil {
		return apperrors.NewExternalError("cache delete failed", err)
	}
	return nil
}

func (a *RedisAdapter) Exists(ctx context.Context, key string) (bool, error) {
	n, err := a.rdb.Exists(ctx, a.key(key)).Result()
	if err != nil {
		return false, apperrors.NewExternalError("cache lookup failed", err)
	}
	return n > 0, nil
}
