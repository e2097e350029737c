package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesPragmas(t *testing.T) {
	database, err := Open(context.Background(), filepath.Join(t.TempDir(), "pragmas.db"))
	require.NoError(t, err)
	defer database.Close()

	var foreignKeys int
	require.NoError(t, database.QueryRow(`PRAGMA foreign_keys`).Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)

	var journalMode string
	require.NoError(t, database.QueryRow(`PRAGMA journal_mode`).Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
}

func TestDSN(t *testing.T) {
	dsn := DSN("./dev.db")
	assert.Contains(t, dsn, "file:./dev.db?")
	assert.Contains(t, dsn, "_pragma=foreign_keys%281%29")
}
