package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
	publishermemory "github.com/hmatsu/knowledge-keeper/internal/publisher/memory"
	repomemory "github.com/hmatsu/knowledge-keeper/internal/repository/memory"
	storagememory "github.com/hmatsu/knowledge-keeper/internal/storage/memory"
)

func seedItem(t *testing.T, repo *repomemory.Repository, store *storagememory.Store, id, userID string) knowledge.Item {
	t.Helper()
	ctx := context.Background()
	item := knowledge.NewItem(id, userID, "https://example.com/"+id, "Title", "Summary", nil, time.Now().UTC())
	require.NoError(t, repo.Save(ctx, item))
	require.NoError(t, store.SaveMarkdown(ctx, item.StorageKey(), "# body"))
	return item
}

func TestDeleteKnowledgeRemovesRowAndBlob(t *testing.T) {
	t.Parallel()

	repo := repomemory.New()
	store := storagememory.New()
	publisher := publishermemory.New()
	item := seedItem(t, repo, store, "item-1", "user-1")

	uc := NewDeleteKnowledge(repo, store, publisher, zap.NewNop())
	require.NoError(t, uc.Execute(context.Background(), "item-1", "user-1"))

	require.Equal(t, 0, repo.Len())
	_, ok := store.Get(item.StorageKey())
	require.False(t, ok)

	messages := publisher.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, TopicDeleted, messages[0].Topic)
}

func TestDeleteKnowledgeForeignUserGetsNotFound(t *testing.T) {
	t.Parallel()

	repo := repomemory.New()
	store := storagememory.New()
	item := seedItem(t, repo, store, "item-1", "user-1")

	uc := NewDeleteKnowledge(repo, store, nil, zap.NewNop())
	err := uc.Execute(context.Background(), "item-1", "user-2")
	require.ErrorIs(t, err, knowledge.ErrNotFound)

	// Item is untouched.
	require.Equal(t, 1, repo.Len())
	_, ok := store.Get(item.StorageKey())
	require.True(t, ok)
}

func TestDeleteKnowledgeMissingItemGetsSameError(t *testing.T) {
	t.Parallel()

	uc := NewDeleteKnowledge(repomemory.New(), storagememory.New(), nil, zap.NewNop())
	err := uc.Execute(context.Background(), "nope", "user-1")
	require.ErrorIs(t, err, knowledge.ErrNotFound)
}

func TestDeleteKnowledgeBlobFailureKeepsRowDeleted(t *testing.T) {
	t.Parallel()

	repo := repomemory.New()
	store := storagememory.New()
	seedItem(t, repo, store, "item-1", "user-1")

	uc := NewDeleteKnowledge(repo, &failingStorage{deleteErr: errors.New("object store down")}, nil, zap.NewNop())
	err := uc.Execute(context.Background(), "item-1", "user-1")
	require.Error(t, err)
	// The error surfaces, but the row stays deleted: orphaned blob accepted.
	require.Equal(t, 0, repo.Len())
}
