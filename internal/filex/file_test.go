package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesNested(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "a", "b", "fx.db")

	require.NoError(t, EnsureParentDir(path))

	fi, err := os.Stat(filepath.Join(base, "a", "b"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestEnsureParentDir_BareFileName(t *testing.T) {
	assert.NoError(t, EnsureParentDir("fx.db"))
}

func TestRemoveFiles_IgnoresMissing(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "x.db")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o600))

	require.NoError(t, RemoveFiles(existing, filepath.Join(dir, "missing-wal")))

	_, err := os.Stat(existing)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRemoveFiles_ReportsFailure(t *testing.T) {
	dir := t.TempDir()
	nonEmpty := filepath.Join(dir, "busy")
	require.NoError(t, os.MkdirAll(filepath.Join(nonEmpty, "child"), 0o700))

	err := RemoveFiles(nonEmpty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remove")
}
