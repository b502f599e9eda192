package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"create storage locations", "create_storage_locations"},
		{"Add-Transfer-Index", "add_transfer_index"},
		{"ADD_RECEIVING_STATUS", "add_receiving_status"},
		{"add__sorting__notes", "add_sorting_notes"},
		{"Pond Capacity 2", "pond_capacity_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("-- test"), 0o644))
	}
}

func TestCreateMigration_FirstVersion(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "create storage locations", "Ponds and tanks")
	require.NoError(t, err)

	assert.Equal(t, uint(1), mf.Version)
	assert.Equal(t, "000001_create_storage_locations", mf.BaseName())
	assert.Equal(t, filepath.Join(dir, "000001_create_storage_locations.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_storage_locations.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Migration: create_storage_locations")
	assert.Contains(t, string(up), "Ponds and tanks")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")
}

func TestCreateMigration_NextVersion(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"000001_create_storage_locations.up.sql",
		"000001_create_storage_locations.down.sql",
		"000004_create_dispatch.up.sql",
		"000004_create_dispatch.down.sql",
	)

	mf, err := CreateMigration(dir, "add outlet index", "")
	require.NoError(t, err)
	assert.Equal(t, uint(5), mf.Version)
	assert.Equal(t, "000005_add_outlet_index", mf.BaseName())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	require.Error(t, err)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"000002_create_sorting.up.sql",
		"000002_create_sorting.down.sql",
		"000001_create_storage_locations.up.sql",
		"000001_create_storage_locations.down.sql",
		"000003_create_transfers.up.sql",
	)

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, uint(1), list[0].Version)
	assert.Equal(t, "create_storage_locations", list[0].Name)
	assert.Equal(t, uint(2), list[1].Version)
	assert.NotEmpty(t, list[1].DownPath)
	assert.Equal(t, uint(3), list[2].Version)
	assert.Empty(t, list[2].DownPath, "missing down file is reported as empty")
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	list, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListMigrations_IgnoresOtherEntries(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"000001_init.up.sql",
		"000001_init.down.sql",
		"README.md",
		"embed.go",
		"notes.sql",
		"abc_bad.up.sql",
		"000002_init.sideways.sql",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "000001_init", list[0].BaseName())
}

func TestParseFileName(t *testing.T) {
	v, name, dir, ok := parseFileName("000004_create_dispatch.down.sql")
	require.True(t, ok)
	assert.Equal(t, uint(4), v)
	assert.Equal(t, "create_dispatch", name)
	assert.Equal(t, "down", dir)

	_, _, _, ok = parseFileName("000004.up.sql")
	assert.False(t, ok)
}
