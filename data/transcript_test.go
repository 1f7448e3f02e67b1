package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptStoreRoundTrip(t *testing.T) {
	store := NewTranscriptStore(t.TempDir())

	require.NoError(t, store.Save("abc123", []byte(`{"id":"abc123"}`)))
	assert.True(t, store.Exists("abc123"))

	got, err := store.Load("abc123")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"abc123"}`, string(got))

	require.NoError(t, store.Delete("abc123"))
	assert.False(t, store.Exists("abc123"))
	// Deleting twice is not an error.
	assert.NoError(t, store.Delete("abc123"))

	_, err = store.Load("abc123")
	assert.Error(t, err)
}

func TestTranscriptStoreListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	store := NewTranscriptStore(dir)

	require.NoError(t, store.Save("old", []byte("{}")))
	require.NoError(t, store.Save("new", []byte("{}")))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.json"), past, past))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	infos, err := store.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "new", infos[0].ID)
	assert.Equal(t, "old", infos[1].ID)
}

func TestTranscriptStoreListMissingDir(t *testing.T) {
	store := NewTranscriptStore(filepath.Join(t.TempDir(), "missing"))
	infos, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestTranscriptStoreResolve(t *testing.T) {
	store := NewTranscriptStore(t.TempDir())
	require.NoError(t, store.Save("4f1c0d2e", []byte("{}")))
	require.NoError(t, store.Save("4f9aa001", []byte("{}")))
	require.NoError(t, store.Save("b7000000", []byte("{}")))

	id, err := store.Resolve("b7")
	require.NoError(t, err)
	assert.Equal(t, "b7000000", id)

	id, err = store.Resolve("4f1c0d2e")
	require.NoError(t, err)
	assert.Equal(t, "4f1c0d2e", id)

	_, err = store.Resolve("4f")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = store.Resolve("zz")
	assert.ErrorContains(t, err, "not found")

	_, err = store.Resolve(" ")
	assert.Error(t, err)
}

func TestTranscriptStoreDeleteAll(t *testing.T) {
	store := NewTranscriptStore(t.TempDir())
	require.NoError(t, store.Save("a", []byte("{}")))
	require.NoError(t, store.Save("b", []byte("{}")))

	n, err := store.DeleteAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	infos, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestTranscriptStoreSanitizesIDs(t *testing.T) {
	dir := t.TempDir()
	store := NewTranscriptStore(dir)
	require.NoError(t, store.Save("../escape", []byte("{}")))
	_, err := os.Stat(filepath.Join(dir, ".._escape.json"))
	assert.NoError(t, err)
}
