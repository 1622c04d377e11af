package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is a KV backed by one file per key in a directory. Values are written
// whole; a write replaces the previous value. Overwrites the file if it
// exists, matching single-writer semantics.
type File struct {
	dir string
}

// NewFile creates the backing directory if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *File) Get(key string) ([]byte, error) {
	b, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (f *File) Put(key string, value []byte) error {
	return os.WriteFile(f.path(key), value, 0644)
}

func (f *File) Delete(key string) error {
	err := os.Remove(f.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
