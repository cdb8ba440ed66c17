package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/config"
	"github.com/snacktacular/backend/pkg/retry"
)

// Client is the connection shared by the response cache and the event bus
type Client struct {
	client *redis.Client
}

// Redis is optional, so startup gives up much sooner than for the store
var bootstrapRetry = retry.Config{
	MaxAttempts:     4,
	InitialDelay:    200 * time.Millisecond,
	MaxDelay:        2 * time.Second,
	BackoffFactor:   2,
	MaxTotalTimeout: 10 * time.Second,
}

// NewClient connects using cfg.URL when set, otherwise host, port and db
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	logger := observability.GetLogger().With().Str("addr", opts.Addr).Logger()
	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	}
	onRetry := func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Redis not reachable yet")
	}
	if err := retry.DoWithLog(ctx, bootstrapRetry, "Redis", ping, onRetry); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info().Int("db", opts.DB).Msg("Connected to Redis")
	return &Client{client: rdb}, nil
}

func options(cfg *config.RedisConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: cfg.RedisAddr(), Password: cfg.Password, DB: cfg.DB}, nil
}

// NewFromRedis wraps an existing go-redis client
func NewFromRedis(client *redis.Client) *Client {
	return &Client{client: client}
}

func (c *Client) Client() *redis.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}
