package migration

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishfarm/backend/migrations"
)

// The embedded schema must be a gapless 1..N sequence with both directions
func TestEmbeddedMigrations_Sequence(t *testing.T) {
	src, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	defer src.Close()

	var versions []uint
	v, err := src.First()
	require.NoError(t, err)
	for {
		versions = append(versions, v)

		up, ident, err := src.ReadUp(v)
		require.NoError(t, err, "version %d has no up file", v)
		_ = up.Close()
		down, _, err := src.ReadDown(v)
		require.NoError(t, err, "version %d (%s) has no down file", v, ident)
		_ = down.Close()

		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
		v = next
	}

	assert.Equal(t, []uint{1, 2, 3, 4}, versions)
}

func TestEmbeddedMigrations_CreateEveryTable(t *testing.T) {
	want := map[string]string{
		"000001_create_storage_locations.up.sql": "CREATE TABLE IF NOT EXISTS storage_locations",
		"000002_create_sorting.up.sql":           "CREATE TABLE IF NOT EXISTS sorting_results",
		"000003_create_transfers.up.sql":         "CREATE TABLE IF NOT EXISTS transfers",
		"000004_create_dispatch.up.sql":          "CREATE TABLE IF NOT EXISTS outlet_receiving",
	}
	for file, stmt := range want {
		body, err := fs.ReadFile(migrations.FS, file)
		require.NoError(t, err, file)
		assert.Contains(t, string(body), stmt, file)
	}
}

func TestWithDirectory_ReadsDisk(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "000001_only.up.sql", "000001_only.down.sql")

	src, err := openSource([]Option{WithDirectory(dir)})
	require.NoError(t, err)
	defer src.Close()

	v, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	_, err = src.Next(v)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
