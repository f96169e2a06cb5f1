package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeasinger/studio/internal/config"
	"github.com/makeasinger/studio/internal/store"
)

func TestLockInstance_SQLite(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "studio.db")}

	first, err := store.LockInstance(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Path+".lock", first.Path())

	_, err = store.LockInstance(cfg)
	assert.ErrorIs(t, err, store.ErrLocked)

	require.NoError(t, first.Release())

	again, err := store.LockInstance(cfg)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestLockInstance_PostgresIsNoop(t *testing.T) {
	lock, err := store.LockInstance(config.DatabaseConfig{Driver: config.DriverPostgres, URL: "postgres://unused"})
	require.NoError(t, err)
	assert.Empty(t, lock.Path())
	assert.NoError(t, lock.Release())
}
