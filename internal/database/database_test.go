package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_UpIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	require.NoError(t, Migrate(path))
	require.NoError(t, Migrate(path))

	v, dirty, err := Version(path)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), v)
}

func TestMigrate_CreatesTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, Migrate(path))

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	for _, table := range []string{"users", "sessions", "statements", "clients", "transactions"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s", table)
	}
}

func TestMigrateDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, Migrate(path))
	require.NoError(t, MigrateDown(path))

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	assert.False(t, db.Migrator().HasTable("statements"))
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, Migrate(path))

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	var enabled int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}
