package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
)

// SearchKnowledge answers a free-text query via the external retrieval index.
// Result scoping is the index's responsibility; no userId filter is applied
// here.
type SearchKnowledge struct {
	searcher knowledge.Searcher
	logger   *zap.Logger
}

// NewSearchKnowledge wires the query.
func NewSearchKnowledge(searcher knowledge.Searcher, logger *zap.Logger) *SearchKnowledge {
	return &SearchKnowledge{
		searcher: searcher,
		logger:   logger.With(zap.String("use_case", "search_knowledge")),
	}
}

// Execute runs the query against the index.
func (uc *SearchKnowledge) Execute(ctx context.Context, query string) (knowledge.SearchResult, error) {
	result, err := uc.searcher.Search(ctx, query)
	if err != nil {
		return knowledge.SearchResult{}, fmt.Errorf("search index: %w", err)
	}
	uc.logger.Debug("search completed", zap.Int("sources", len(result.Sources)))
	return result, nil
}
