package knowledge

import (
	"context"
	"time"
)

// ContentFetcher retrieves a page and returns its content as Markdown.
type ContentFetcher interface {
	FetchMarkdown(ctx context.Context, url string) (string, error)
}

// Summary carries the generated summary and tags for one document.
type Summary struct {
	Summary string
	Tags    []string
}

// Summarizer produces a summary plus tags for a Markdown document. It never
// fails: when the model call or response parsing goes wrong it returns a
// degraded placeholder summary with no tags.
type Summarizer interface {
	Summarize(ctx context.Context, content string) Summary
}

// ContentStorage persists raw Markdown bodies under opaque keys.
type ContentStorage interface {
	SaveMarkdown(ctx context.Context, key string, content string) error
	DeleteMarkdown(ctx context.Context, key string) error
}

// Repository persists and retrieves knowledge items, scoped to the owning
// user on every read and delete.
type Repository interface {
	Save(ctx context.Context, item Item) error
	FindByID(ctx context.Context, id, userID string) (Item, error)
	FindByURL(ctx context.Context, userID, url string) (Item, error)
	FindAllByUserID(ctx context.Context, userID string) ([]Item, error)
	DeleteByID(ctx context.Context, id, userID string) error
}

// SearchSource is one supporting snippet returned by the search index.
type SearchSource struct {
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// SearchResult is the answer produced by the retrieval-augmented index.
type SearchResult struct {
	Response string         `json:"response"`
	Sources  []SearchSource `json:"sources"`
}

// Searcher runs a free-text query against the externally maintained index.
type Searcher interface {
	Search(ctx context.Context, query string) (SearchResult, error)
}

// Publisher pushes item lifecycle events to the out-of-band indexer.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces item IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
