package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config bounds a retry loop by attempts and by total time
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	MaxTotalTimeout time.Duration

	// Retryable decides whether an error is worth another attempt.
	// A nil Retryable retries every error.
	Retryable func(error) bool
}

// DefaultConfig is used while waiting for a backing service at startup
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 60 * time.Second,
	}
}

// QuickConfig is short enough to run inside a request
func QuickConfig(attempts int) Config {
	if attempts < 1 {
		attempts = 1
	}
	return Config{
		MaxAttempts:     attempts,
		InitialDelay:    50 * time.Millisecond,
		MaxDelay:        500 * time.Millisecond,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 5 * time.Second,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error or the
// budget in cfg is spent
func Do(ctx context.Context, cfg Config, fn func() error) error {
	return run(ctx, cfg, "", fn, nil)
}

// DoWithLog is Do with a callback before each wait
func DoWithLog(ctx context.Context, cfg Config, serviceName string, fn func() error, logFn func(attempt int, err error, nextDelay time.Duration)) error {
	return run(ctx, cfg, serviceName, fn, logFn)
}

func (c Config) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialDelay
	b.MaxInterval = c.MaxDelay
	b.RandomizationFactor = 0
	if c.BackoffFactor >= 1 {
		b.Multiplier = c.BackoffFactor
	}
	return b
}

func run(ctx context.Context, cfg Config, serviceName string, fn func() error, logFn func(int, error, time.Duration)) error {
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	prefix := ""
	if serviceName != "" {
		prefix = serviceName + ": "
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%sretry aborted: %w", prefix, err)
	}

	attempts := 0
	operation := func() (struct{}, error) {
		attempts++
		err := fn()
		if err != nil && cfg.Retryable != nil && !cfg.Retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(cfg.backOff()),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(cfg.MaxTotalTimeout),
	}
	if logFn != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			logFn(attempts, err, next)
		}))
	}

	_, err := backoff.Retry(ctx, operation, opts...)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	switch {
	case err == nil:
		return nil
	case cfg.Retryable != nil && !cfg.Retryable(err):
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("%sretry aborted after %d attempts: %w", prefix, attempts, err)
	}
	return fmt.Errorf("%sgave up after %d attempts: %w", prefix, attempts, err)
}
