// Package local implements blobstore.Store over a plain directory tree —
// what a firmware build normally points at during local development.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"qecd/blobstore"
)

// Store roots every key under a single directory.
type Store struct {
	root string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, key)
}

// Get opens key for reading. Returns blobstore.ErrNotFound if it doesn't
// exist under the store's root.
func (s *Store) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, blobstore.ErrNotFound
	}
	return f, err
}

// Put writes r to key, replacing any existing file, creating parent
// directories as needed.
func (s *Store) Put(_ context.Context, key string, r io.Reader) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}
