package postgres

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snacktacular/backend/pkg/config"
)

func TestConfigurePool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	configurePool(db, &config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 2, ConnMaxLifetime: time.Minute})
	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}

func TestConfigurePool_ZeroKeepsDefaults(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	configurePool(db, &config.DatabaseConfig{})
	assert.Equal(t, 0, db.Stats().MaxOpenConnections)
}

func TestNewFromDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	client := NewFromDB(db)
	assert.Same(t, db, client.DB())

	mock.ExpectClose()
	require.NoError(t, client.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
