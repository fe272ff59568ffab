package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
)

// ListKnowledge returns every item a user owns, most recent first.
type ListKnowledge struct {
	repo   knowledge.Repository
	logger *zap.Logger
}

// NewListKnowledge wires the query.
func NewListKnowledge(repo knowledge.Repository, logger *zap.Logger) *ListKnowledge {
	return &ListKnowledge{
		repo:   repo,
		logger: logger.With(zap.String("use_case", "list_knowledge")),
	}
}

// Execute lists the user's items ordered by createdAt descending.
func (uc *ListKnowledge) Execute(ctx context.Context, userID string) ([]knowledge.ItemView, error) {
	items, err := uc.repo.FindAllByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	views := make([]knowledge.ItemView, len(items))
	for i, item := range items {
		views[i] = item.View()
	}
	uc.logger.Debug("items listed", zap.String("user_id", userID), zap.Int("count", len(views)))
	return views, nil
}
