package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("RATING_RECONCILE_INTERVAL", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Ratings.PersistAttempts)
	assert.Equal(t, time.Duration(0), cfg.Ratings.ReconcileInterval)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("RATING_RECONCILE_INTERVAL", "10m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATING_RECONCILE_SWEEP_EVERY", "6")
	t.Setenv("DB_MAX_OPEN_CONNS", "10")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreBackendPostgres, cfg.Store.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Ratings.ReconcileInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Ratings.SweepEvery)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 90*time.Second, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_FirestoreRequiresProject(t *testing.T) {
	t.Setenv("STORE_BACKEND", "firestore")
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("FIREBASE_PROJECT_ID", "snacks-prod")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UsesFirebase())
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "cassandra")

	_, err := Load()
	assert.Error(t, err)
}
