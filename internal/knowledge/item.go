// Package knowledge defines the domain entity and the capability ports the
// application layer depends on.
package knowledge

import "time"

// MaxTags caps the number of tags an item may carry.
const MaxTags = 5

// Item is one captured knowledge record. Items are immutable once built;
// corrections are delete + recreate.
type Item struct {
	ID        string
	UserID    string
	URL       string
	Title     string
	Summary   string
	Tags      []string
	CreatedAt time.Time
}

// NewItem builds an Item from freshly generated identity and clock values.
// Tags beyond MaxTags are dropped.
func NewItem(id, userID, url, title, summary string, tags []string, createdAt time.Time) Item {
	return Item{
		ID:        id,
		UserID:    userID,
		URL:       url,
		Title:     title,
		Summary:   summary,
		Tags:      capTags(tags),
		CreatedAt: createdAt,
	}
}

// Reconstitute rebuilds an Item from persisted values.
func Reconstitute(id, userID, url, title, summary string, tags []string, createdAt time.Time) Item {
	return NewItem(id, userID, url, title, summary, tags, createdAt)
}

func capTags(tags []string) []string {
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
