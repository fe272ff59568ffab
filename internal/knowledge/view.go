package knowledge

import "time"

// ItemView is the serialized shape returned across the interface boundary.
type ItemView struct {
	ID        string   `json:"id"`
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"createdAt"`
}

// View maps the entity to its wire representation. Timestamps serialize as
// RFC 3339 and the tag slice is copied so callers cannot mutate the entity.
func (i Item) View() ItemView {
	tags := make([]string, len(i.Tags))
	copy(tags, i.Tags)
	return ItemView{
		ID:        i.ID,
		URL:       i.URL,
		Title:     i.Title,
		Summary:   i.Summary,
		Tags:      tags,
		CreatedAt: i.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// StorageKey is the blob key the raw Markdown lives under.
func (i Item) StorageKey() string {
	return i.UserID + "/" + i.ID + ".md"
}
