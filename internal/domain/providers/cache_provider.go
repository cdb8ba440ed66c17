package providers

import (
	"context"
	"time"
)

// CacheProvider is a byte-oriented key/value cache. A missing or expired key
// is reported as a NOT_FOUND AppError.
type CacheProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl; a non-positive ttl keeps it until deleted
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
