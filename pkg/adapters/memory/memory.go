// Package memory implements core.Storage in process memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/canon/pkg/core"
)

// Storage is a map-backed core.Storage. Values are copied on the way in and
// out so callers can never alias stored bytes.
type Storage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory storage.
func New() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

// Initialize implements core.Storage.
func (s *Storage) Initialize(ctx context.Context) error { return nil }

// Read implements core.Storage.
func (s *Storage) Read(ctx context.Context, path string) ([]byte, error) {
	p, err := core.CleanPath(path)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[p]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, core.ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

// Write implements core.Storage.
func (s *Storage) Write(ctx context.Context, path string, data []byte) error {
	p, err := core.CleanPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[p] = append([]byte(nil), data...)
	return nil
}

// Exists implements core.Storage.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	p, err := core.CleanPath(path)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[p]
	return ok, nil
}

// Delete implements core.Storage.
func (s *Storage) Delete(ctx context.Context, path string) error {
	p, err := core.CleanPath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[p]; !ok {
		return fmt.Errorf("%s: %w", p, core.ErrNotFound)
	}
	delete(s.data, p)
	return nil
}

// List implements core.Storage.
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.data))
	for p := range s.data {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Len returns the number of stored values.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ core.Storage = (*Storage)(nil)

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "memory-storage"
}
