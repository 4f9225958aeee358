// Package local stores the snapshot as a file on the local filesystem.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the snapshot in a single file.
type FileStore struct {
	path string
}

// New creates a store writing to path. The parent directory is created
// when missing.
func New(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Write replaces the snapshot file atomically.
func (s *FileStore) Write(_ context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename to %s: %w", s.path, err)
	}
	return nil
}

// Read returns the snapshot file contents.
func (s *FileStore) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return data, nil
}

// Type returns "local".
func (s *FileStore) Type() string { return "local" }

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
