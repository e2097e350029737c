package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/jewelbook/internal/db"
)

func TestUp_AppliesAllAndIsRepeatable(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer database.Close()

	applied, err := Up(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 4, applied)

	applied, err = Up(ctx, database)
	require.NoError(t, err)
	assert.Zero(t, applied)

	version, err := Version(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	for _, table := range []string{"customers", "inventory_items", "bills", "bill_items", "worksheets", "receipts"} {
		var name string
		err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}
