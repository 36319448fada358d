package db

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLitePair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.sqlite")

	writeDB, readDB, err := OpenSQLitePair(path, 4)
	require.NoError(t, err)
	defer writeDB.Close()
	defer readDB.Close()

	require.NoError(t, writeDB.Ping())
	require.NoError(t, readDB.Ping())

	// WAL mode is set on both pools.
	var mode string
	require.NoError(t, writeDB.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, writeDB.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestRunMigrations(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)
	ctx := context.Background()

	// Migrations are idempotent.
	require.NoError(t, RunMigrations(writeDB))

	for _, table := range []string{"datasets", "load_runs", "audit_log"} {
		var name string
		err := readDB.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}
