package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snacktacular/backend/pkg/config"
)

func TestOptions(t *testing.T) {
	opts, err := options(&config.RedisConfig{Host: "cache", Port: 6380, DB: 2, Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "pw", opts.Password)

	opts, err = options(&config.RedisConfig{URL: "redis://:secret@redis.internal:6379/3", Host: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, "secret", opts.Password)

	_, err = options(&config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}
