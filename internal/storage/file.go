package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage keeps each document as one JSON file inside a directory. It is
// the development and test backend; deployments use RedisStorage. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// truncated collection behind.
type FileStorage struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStorage creates the directory if needed and returns a store rooted
// at it.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get returns the document stored under key, or ErrNotFound.
func (s *FileStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// Put stores the document under key, replacing any previous value.
func (s *FileStorage) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(key))
}

// Delete removes the document under key. Absent keys are not an error.
func (s *FileStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
