package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/snacktacular/backend/internal/infrastructure/observability"
	"github.com/snacktacular/backend/pkg/config"
	"github.com/snacktacular/backend/pkg/retry"
)

// Client owns the connection pool behind the postgres document store
type Client struct {
	db *sql.DB
}

// NewClient opens a pool sized from cfg and waits, with backoff, until the
// server answers a ping. Each ping is bounded by cfg.ConnectTimeout.
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	configurePool(db, cfg)

	pingTimeout := cfg.ConnectTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}

	logger := observability.GetLogger().With().Str("host", cfg.Host).Str("database", cfg.Database).Logger()
	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	}
	onRetry := func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("PostgreSQL not reachable yet")
	}
	if err := retry.DoWithLog(ctx, retry.DefaultConfig(), "PostgreSQL", ping, onRetry); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger.Info().Int("max_open_conns", cfg.MaxOpenConns).Msg("Connected to PostgreSQL")
	return &Client{db: db}, nil
}

func configurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// NewFromDB wraps an already opened pool, as tests do with sqlmock
func NewFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// DB exposes the pool to the store's query builder
func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}
