// Package memory stores knowledge items in-memory for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
)

// Repository implements knowledge.Repository with a map guarded by a mutex.
type Repository struct {
	mu    sync.RWMutex
	items map[string]knowledge.Item
}

// New creates an empty Repository.
func New() *Repository {
	return &Repository{items: make(map[string]knowledge.Item)}
}

// Save inserts the item, enforcing the (userID, url) uniqueness the
// relational schema guarantees in production.
func (r *Repository) Save(_ context.Context, item knowledge.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.UserID == item.UserID && existing.URL == item.URL {
			return knowledge.ErrDuplicateURL
		}
	}
	r.items[item.ID] = item
	return nil
}

// FindByID returns the item when it exists and belongs to the user.
func (r *Repository) FindByID(_ context.Context, id, userID string) (knowledge.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return knowledge.Item{}, knowledge.ErrNotFound
	}
	return item, nil
}

// FindByURL returns the user's item for a URL.
func (r *Repository) FindByURL(_ context.Context, userID, url string) (knowledge.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.UserID == userID && item.URL == url {
			return item, nil
		}
	}
	return knowledge.Item{}, knowledge.ErrNotFound
}

// FindAllByUserID returns the user's items ordered by createdAt descending.
func (r *Repository) FindAllByUserID(_ context.Context, userID string) ([]knowledge.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []knowledge.Item
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteByID removes the item when it exists and belongs to the user.
func (r *Repository) DeleteByID(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return knowledge.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// Len reports the stored item count (test helper).
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
