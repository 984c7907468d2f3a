package storage

import (
	"context"
	"io"
	"sync"
)

// MemoryStorage keeps uploaded objects in a map.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (s *MemoryStorage) Upload(_ context.Context, name string, data io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[name] = b
	s.mu.Unlock()
	return "/memory/" + name, nil
}

func (s *MemoryStorage) Object(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[name]
	return b, ok
}
