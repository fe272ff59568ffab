// Package usecase orchestrates the knowledge ports into business operations.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
)

// Topics for item lifecycle events consumed by the out-of-band indexer.
const (
	TopicSaved   = "knowledge.saved"
	TopicDeleted = "knowledge.deleted"
)

// ItemEvent is the payload published after a save or delete.
type ItemEvent struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	URL        string `json:"url,omitempty"`
	StorageKey string `json:"storage_key"`
}

// ExtractAndSave captures a URL: fetch, title, summarize, persist, mirror the
// raw Markdown to blob storage.
type ExtractAndSave struct {
	fetcher    knowledge.ContentFetcher
	summarizer knowledge.Summarizer
	repo       knowledge.Repository
	storage    knowledge.ContentStorage
	publisher  knowledge.Publisher
	idGen      knowledge.IDGenerator
	clock      knowledge.Clock
	logger     *zap.Logger
}

// NewExtractAndSave wires the command with its collaborators.
func NewExtractAndSave(
	fetcher knowledge.ContentFetcher,
	summarizer knowledge.Summarizer,
	repo knowledge.Repository,
	storage knowledge.ContentStorage,
	publisher knowledge.Publisher,
	idGen knowledge.IDGenerator,
	clock knowledge.Clock,
	logger *zap.Logger,
) *ExtractAndSave {
	return &ExtractAndSave{
		fetcher:    fetcher,
		summarizer: summarizer,
		repo:       repo,
		storage:    storage,
		publisher:  publisher,
		idGen:      idGen,
		clock:      clock,
		logger:     logger.With(zap.String("use_case", "extract_and_save")),
	}
}

// Execute runs the capture pipeline for one URL. The duplicate check runs
// before any outbound call so a rejected save costs nothing.
func (uc *ExtractAndSave) Execute(ctx context.Context, url, userID string) (knowledge.ItemView, error) {
	if _, err := uc.repo.FindByURL(ctx, userID, url); err == nil {
		return knowledge.ItemView{}, knowledge.ErrDuplicateURL
	} else if !errors.Is(err, knowledge.ErrNotFound) {
		return knowledge.ItemView{}, fmt.Errorf("check existing url: %w", err)
	}

	markdown, err := uc.fetcher.FetchMarkdown(ctx, url)
	if err != nil {
		uc.logger.Warn("content fetch failed", zap.String("url", url), zap.Error(err))
		return knowledge.ItemView{}, fmt.Errorf("%w: %w", knowledge.ErrFetchFailed, err)
	}
	if strings.TrimSpace(markdown) == "" {
		return knowledge.ItemView{}, fmt.Errorf("%w: empty response body", knowledge.ErrFetchFailed)
	}

	title := knowledge.ExtractTitle(markdown, url)
	summary := uc.summarizer.Summarize(ctx, markdown)

	id, err := uc.idGen.NewID()
	if err != nil {
		return knowledge.ItemView{}, fmt.Errorf("generate item id: %w", err)
	}
	item := knowledge.NewItem(id, userID, url, title, summary.Summary, summary.Tags, uc.clock.Now())

	if err := uc.repo.Save(ctx, item); err != nil {
		return knowledge.ItemView{}, fmt.Errorf("save item: %w", err)
	}
	// The row is already committed; a failed blob write leaves the row in
	// place and surfaces the error (accepted inconsistency window).
	if err := uc.storage.SaveMarkdown(ctx, item.StorageKey(), markdown); err != nil {
		uc.logger.Error("markdown blob write failed after row insert",
			zap.String("item_id", item.ID),
			zap.String("key", item.StorageKey()),
			zap.Error(err),
		)
		return knowledge.ItemView{}, fmt.Errorf("save markdown: %w", err)
	}

	uc.publish(ctx, TopicSaved, ItemEvent{
		ID:         item.ID,
		UserID:     item.UserID,
		URL:        item.URL,
		StorageKey: item.StorageKey(),
	})

	uc.logger.Info("knowledge item saved",
		zap.String("item_id", item.ID),
		zap.String("user_id", item.UserID),
		zap.String("url", item.URL),
		zap.Int("tags", len(item.Tags)),
	)
	return item.View(), nil
}

func (uc *ExtractAndSave) publish(ctx context.Context, topic string, event ItemEvent) {
	if uc.publisher == nil {
		return
	}
	if _, err := uc.publisher.Publish(ctx, topic, event); err != nil {
		// Indexing events are best-effort; the save already succeeded.
		uc.logger.Warn("publish event failed", zap.String("topic", topic), zap.Error(err))
	}
}
