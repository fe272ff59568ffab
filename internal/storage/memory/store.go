// Package memory stores Markdown blobs in-memory for development and tests.
package memory

import (
	"context"
	"sync"
)

// Store implements knowledge.ContentStorage with a map.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

// SaveMarkdown persists the content under the key.
func (s *Store) SaveMarkdown(_ context.Context, key, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = content
	return nil
}

// DeleteMarkdown removes the key. Deleting a missing key is a no-op, matching
// object-store semantics.
func (s *Store) DeleteMarkdown(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Get returns the stored content (test helper).
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.data[key]
	return content, ok
}
