package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
)

// DeleteKnowledge removes an item's row and its Markdown blob, scoped to the
// owning user.
type DeleteKnowledge struct {
	repo      knowledge.Repository
	storage   knowledge.ContentStorage
	publisher knowledge.Publisher
	logger    *zap.Logger
}

// NewDeleteKnowledge wires the command.
func NewDeleteKnowledge(
	repo knowledge.Repository,
	storage knowledge.ContentStorage,
	publisher knowledge.Publisher,
	logger *zap.Logger,
) *DeleteKnowledge {
	return &DeleteKnowledge{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		logger:    logger.With(zap.String("use_case", "delete_knowledge")),
	}
}

// Execute deletes one item. Missing and foreign items both report
// knowledge.ErrNotFound so existence never leaks across users. A blob delete
// failure surfaces, but the row stays deleted.
func (uc *DeleteKnowledge) Execute(ctx context.Context, id, userID string) error {
	item, err := uc.repo.FindByID(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("find item: %w", err)
	}

	if err := uc.repo.DeleteByID(ctx, id, userID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if err := uc.storage.DeleteMarkdown(ctx, item.StorageKey()); err != nil {
		uc.logger.Error("markdown blob delete failed after row delete",
			zap.String("item_id", id),
			zap.String("key", item.StorageKey()),
			zap.Error(err),
		)
		return fmt.Errorf("delete markdown: %w", err)
	}

	if uc.publisher != nil {
		event := ItemEvent{ID: item.ID, UserID: item.UserID, StorageKey: item.StorageKey()}
		if _, err := uc.publisher.Publish(ctx, TopicDeleted, event); err != nil {
			uc.logger.Warn("publish event failed", zap.String("topic", TopicDeleted), zap.Error(err))
		}
	}

	uc.logger.Info("knowledge item deleted", zap.String("item_id", id), zap.String("user_id", userID))
	return nil
}
