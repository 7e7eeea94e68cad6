package db

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/justone/assets"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sqldb, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	defer sqldb.Close()

	require.NoError(t, Migrate(ctx, sqldb, assets.Migrations()))
	require.NoError(t, Migrate(ctx, sqldb, assets.Migrations()))

	var n int
	require.NoError(t, sqldb.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)
	_, err = sqldb.Exec(`SELECT id, version, data FROM games LIMIT 1`)
	assert.NoError(t, err)
}

func TestMigrateRollsBackBrokenFile(t *testing.T) {
	ctx := context.Background()
	sqldb, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer sqldb.Close()

	bad := fstest.MapFS{"001_bad.sql": {Data: []byte(`CREATE TABLE oops (`)}}
	assert.Error(t, Migrate(ctx, sqldb, bad))

	var n int
	require.NoError(t, sqldb.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 0, n)
}
