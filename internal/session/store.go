// Package session keeps the state of the user's workspace: open documents,
// window layout and the loader state restored on the next start.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// ErrNotFound is returned when the requested state was never stored.
var ErrNotFound = errors.New("state not found")

// Store persists named state records as YAML files in a directory.
type Store struct {
	dir string
}

// NewStore creates a new Store in the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save serializes the value to the record with the given name, replacing it
// atomically.
func (m *Store) Save(name string, value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return writeFile(m.path(name), data)
}

// Load deserializes the record with the given name into value.
func (m *Store) Load(name string, value any) error {
	data, err := os.ReadFile(m.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := yaml.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}

func (m *Store) path(name string) string {
	return filepath.Join(m.dir, name+".yaml")
}

// writeFile writes data to a temporary file next to path and renames it to
// path, so readers never observe a partially written file.
func writeFile(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmpFile.Name()) // no-op after a successful rename

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return fmt.Errorf("failed to move: %w", err)
	}
	return nil
}
