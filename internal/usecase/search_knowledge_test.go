package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
)

func TestSearchKnowledgeReturnsResult(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{result: knowledge.SearchResult{
		Response: "Distributed systems trade consistency for availability.",
		Sources: []knowledge.SearchSource{
			{Filename: "user-1/item-1.md", Score: 0.92, Content: "CAP theorem notes"},
			{Filename: "user-1/item-2.md", Score: 0.61, Content: "Raft summary"},
		},
	}}

	uc := NewSearchKnowledge(searcher, zap.NewNop())
	result, err := uc.Execute(context.Background(), "distributed systems")
	require.NoError(t, err)
	require.NotEmpty(t, result.Response)
	require.Len(t, result.Sources, 2)
	for _, src := range result.Sources {
		require.GreaterOrEqual(t, src.Score, 0.0)
		require.LessOrEqual(t, src.Score, 1.0)
	}
}

func TestSearchKnowledgePropagatesIndexError(t *testing.T) {
	t.Parallel()

	uc := NewSearchKnowledge(&fakeSearcher{err: errors.New("index unavailable")}, zap.NewNop())
	_, err := uc.Execute(context.Background(), "anything")
	require.Error(t, err)
}
