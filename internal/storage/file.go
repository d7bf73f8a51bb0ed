package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one file per key in a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// DataDir returns the idlesnap XDG data directory.
// Path: $XDG_DATA_HOME/idlesnap or ~/.local/share/idlesnap
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "idlesnap"), nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, Sanitize(key)+".dat")
}

// Get reads the blob stored under key.
func (f *FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set writes the blob atomically via a temp file + os.Rename.
func (f *FileStore) Set(key string, data []byte) (err error) {
	tmp, err := os.CreateTemp(f.dir, "blob-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	if err = os.Rename(tmpName, f.path(key)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

// Remove deletes the blob stored under key. Removing a missing key is not an
// error.
func (f *FileStore) Remove(key string) error {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
