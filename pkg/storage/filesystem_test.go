package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("digests/report.csv", []byte("id,title\n"))
	require.NoError(t, err)
	assert.Equal(t, "digests/report.csv", name)

	f, err := store.Open(name)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "id,title\n", string(data))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.csv", []byte("x"))
	assert.Error(t, err)

	_, err = store.Open("/etc/passwd")
	assert.Error(t, err)
}

func TestLocalStorageDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("report.pdf", []byte("%PDF"))
	require.NoError(t, err)

	require.NoError(t, store.Delete("report.pdf"))
	_, err = store.Open("report.pdf")
	assert.Error(t, err)

	// deleting twice is fine
	assert.NoError(t, store.Delete("report.pdf"))
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("stale.csv", []byte("old"))
	require.NoError(t, err)
	stalePath := filepath.Join(dir, "stale.csv")
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stalePath, old, old))

	_, err = store.Save("fresh.csv", []byte("new"))
	require.NoError(t, err)

	removed, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale.csv"}, removed)

	_, err = store.Open("fresh.csv")
	assert.NoError(t, err)
}
