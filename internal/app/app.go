// Package app initializes and holds the long-lived services of the knowledge
// service, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/hmatsu/knowledge-keeper/internal/api"
	"github.com/hmatsu/knowledge-keeper/internal/auth"
	"github.com/hmatsu/knowledge-keeper/internal/clock/system"
	"github.com/hmatsu/knowledge-keeper/internal/config"
	"github.com/hmatsu/knowledge-keeper/internal/fetcher/direct"
	"github.com/hmatsu/knowledge-keeper/internal/fetcher/headless"
	"github.com/hmatsu/knowledge-keeper/internal/fetcher/render"
	iduuid "github.com/hmatsu/knowledge-keeper/internal/id/uuid"
	"github.com/hmatsu/knowledge-keeper/internal/knowledge"
	publisherMemory "github.com/hmatsu/knowledge-keeper/internal/publisher/memory"
	"github.com/hmatsu/knowledge-keeper/internal/publisher/pubsub"
	repoMemory "github.com/hmatsu/knowledge-keeper/internal/repository/memory"
	"github.com/hmatsu/knowledge-keeper/internal/repository/postgres"
	"github.com/hmatsu/knowledge-keeper/internal/searcher/autorag"
	"github.com/hmatsu/knowledge-keeper/internal/storage/gcs"
	"github.com/hmatsu/knowledge-keeper/internal/storage/minio"
	storageMemory "github.com/hmatsu/knowledge-keeper/internal/storage/memory"
	"github.com/hmatsu/knowledge-keeper/internal/summarizer/gemini"
	"github.com/hmatsu/knowledge-keeper/internal/usecase"
)

// App holds the shared, long-lived services for the knowledge service. It is
// initialized once at startup and handed to the HTTP layer.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	verifier   *auth.Verifier
	fetcher    knowledge.ContentFetcher
	summarizer knowledge.Summarizer
	repo       knowledge.Repository
	storage    knowledge.ContentStorage
	publisher  knowledge.Publisher
	searcher   knowledge.Searcher

	closers []func() error
}

// New creates and initializes an App from the configuration. It fails fast if
// any service cannot be constructed.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("initialize session verifier: %w", err)
	}
	a.verifier = verifier

	if err := a.initFetcher(); err != nil {
		return nil, err
	}
	if err := a.initSummarizer(ctx); err != nil {
		return nil, err
	}
	if err := a.initRepository(ctx); err != nil {
		return nil, err
	}
	if err := a.initStorage(ctx); err != nil {
		return nil, err
	}
	if err := a.initPublisher(ctx); err != nil {
		return nil, err
	}
	if err := a.initSearcher(); err != nil {
		return nil, err
	}

	return a, nil
}

// Verifier returns the session verifier used by the HTTP layer.
func (a *App) Verifier() *auth.Verifier {
	return a.verifier
}

// UseCases builds the use-case set for one request on top of the long-lived
// clients, wired to the request-scoped logger.
func (a *App) UseCases(logger *zap.Logger) api.UseCases {
	idGen := iduuid.New()
	clk := system.New()
	return api.UseCases{
		ExtractAndSave:  usecase.NewExtractAndSave(a.fetcher, a.summarizer, a.repo, a.storage, a.publisher, idGen, clk, logger),
		ListKnowledge:   usecase.NewListKnowledge(a.repo, logger),
		DeleteKnowledge: usecase.NewDeleteKnowledge(a.repo, a.storage, a.publisher, logger),
		SearchKnowledge: usecase.NewSearchKnowledge(a.searcher, logger),
	}
}

// Close releases held connections in reverse initialization order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close service failed", zap.Error(err))
		}
	}
}

func (a *App) initFetcher() error {
	cfg := a.cfg.Fetcher
	switch cfg.Provider {
	case "render":
		a.logger.Info("using render fetcher", zap.String("endpoint", cfg.RenderEndpoint))
		client, err := render.New(render.Config{
			Endpoint: cfg.RenderEndpoint,
			Token:    cfg.RenderToken,
			Timeout:  a.cfg.FetchTimeout(),
		})
		if err != nil {
			return fmt.Errorf("initialize render fetcher: %w", err)
		}
		a.fetcher = client
	case "direct":
		a.logger.Info("using direct fetcher")
		a.fetcher = direct.New(direct.Config{
			UserAgent: cfg.UserAgent,
			Timeout:   a.cfg.FetchTimeout(),
		})
	case "headless":
		a.logger.Info("using headless fetcher", zap.Int("max_parallel", cfg.MaxParallel))
		f, err := headless.New(headless.Config{
			MaxParallel:       cfg.MaxParallel,
			UserAgent:         cfg.UserAgent,
			NavigationTimeout: time.Duration(cfg.NavTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("initialize headless fetcher: %w", err)
		}
		a.fetcher = f
		a.closers = append(a.closers, func() error {
			f.Close()
			return nil
		})
	default:
		return fmt.Errorf("unknown fetcher provider: %s", cfg.Provider)
	}
	return nil
}

func (a *App) initSummarizer(ctx context.Context) error {
	s, err := gemini.New(ctx, gemini.Config{
		APIKey: a.cfg.AI.APIKey,
		Model:  a.cfg.AI.Model,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("initialize summarizer: %w", err)
	}
	a.summarizer = s
	return nil
}

func (a *App) initRepository(ctx context.Context) error {
	switch a.cfg.DB.Provider {
	case "postgres":
		a.logger.Info("connecting to PostgreSQL", zap.String("table", a.cfg.DB.Table))
		repo, err := postgres.New(ctx, postgres.Config{
			DSN:             a.cfg.DB.DSN,
			Table:           a.cfg.DB.Table,
			MaxConns:        a.cfg.DB.MaxConns,
			MinConns:        a.cfg.DB.MinConns,
			MaxConnLifetime: time.Duration(a.cfg.DB.ConnLifetimeMin) * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		a.repo = repo
		a.closers = append(a.closers, func() error {
			repo.Close()
			return nil
		})
	case "memory":
		a.logger.Info("using in-memory repository, items are not durable")
		a.repo = repoMemory.New()
	default:
		return fmt.Errorf("unknown db provider: %s", a.cfg.DB.Provider)
	}
	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	cfg := a.cfg.Storage
	switch cfg.Provider {
	case "gcs":
		a.logger.Info("using GCS blob store", zap.String("bucket", cfg.GCSBucket))
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.GCSBucket})
		if err != nil {
			return fmt.Errorf("initialize gcs store: %w", err)
		}
		a.storage = store
		a.closers = append(a.closers, client.Close)
	case "minio":
		a.logger.Info("using MinIO blob store", zap.String("bucket", cfg.MinioBucket))
		store, err := minio.New(ctx, minio.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Secure:    cfg.MinioSecure,
		})
		if err != nil {
			return fmt.Errorf("initialize minio store: %w", err)
		}
		a.storage = store
	case "memory":
		a.logger.Info("using in-memory blob store, markdown is not durable")
		a.storage = storageMemory.New()
	default:
		return fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
	return nil
}

func (a *App) initPublisher(ctx context.Context) error {
	cfg := a.cfg.Events
	switch cfg.Provider {
	case "pubsub":
		a.logger.Info("publishing item events to Pub/Sub", zap.String("topic", cfg.TopicID))
		pub, err := pubsub.New(ctx, cfg.ProjectID, cfg.TopicID)
		if err != nil {
			return fmt.Errorf("initialize event publisher: %w", err)
		}
		a.publisher = pub
		a.closers = append(a.closers, pub.Close)
	case "memory":
		a.publisher = publisherMemory.New()
	case "none":
		a.logger.Info("item event publishing disabled")
		a.publisher = nil
	default:
		return fmt.Errorf("unknown events provider: %s", cfg.Provider)
	}
	return nil
}

func (a *App) initSearcher() error {
	s, err := autorag.New(autorag.Config{
		Endpoint:   a.cfg.Search.Endpoint,
		Token:      a.cfg.Search.Token,
		MaxResults: a.cfg.Search.MaxResults,
		Timeout:    a.cfg.FetchTimeout(),
	})
	if err != nil {
		return fmt.Errorf("initialize searcher: %w", err)
	}
	a.searcher = s
	return nil
}
