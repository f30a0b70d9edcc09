package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStore_SaveLoad verifies that a saved record is read back and that the
// directory holds no temporary files afterwards.
func TestStore_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	store := NewStore(dir)

	saved := State{Documents: []string{"/a.go", "/b.go"}, Active: "/b.go"}
	require.NoError(t, store.Save("session", saved))

	var loaded State
	require.NoError(t, store.Load("session", &loaded))
	assert.Equal(t, saved, loaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.yaml", entries[0].Name())
}

// TestStore_Load verifies the errors of loading a record.
func TestStore_Load(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	var state State
	assert.ErrorIs(t, store.Load("missing", &state), ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("documents: {"), 0o644))
	err := store.Load("broken", &state)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

// TestStore_SaveUnwritable verifies that a record cannot be saved when the
// directory cannot be created.
func TestStore_SaveUnwritable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	store := NewStore(filepath.Join(file, "state"))
	assert.Error(t, store.Save("layout", Layout{}))
}
