package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/handlers"
	"github.com/ternarybob/trammate/internal/index"
	"github.com/ternarybob/trammate/internal/ingest"
	"github.com/ternarybob/trammate/internal/interfaces"
	"github.com/ternarybob/trammate/internal/services/alias"
	"github.com/ternarybob/trammate/internal/services/answer"
	"github.com/ternarybob/trammate/internal/services/faq"
	"github.com/ternarybob/trammate/internal/services/llm"
	"github.com/ternarybob/trammate/internal/services/processing"
	"github.com/ternarybob/trammate/internal/services/retriever"
	badgerstorage "github.com/ternarybob/trammate/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB      *badgerstorage.BadgerDB
	Storage interfaces.IndexStorage

	// Services
	LLM          interfaces.LLMService
	Cache        *index.Cache
	Retriever    interfaces.RetrieverService
	FAQ          interfaces.FAQService
	Orchestrator *answer.Orchestrator
	Scheduler    *processing.Scheduler

	// HTTP handlers
	AskHandler    *handlers.AskHandler
	SearchHandler *handlers.SearchHandler
	StatusHandler *handlers.StatusHandler
}

// New wires the full service graph from config. The index itself loads
// lazily on the first query, so startup succeeds even before the first
// build; queries return a rebuild hint until then.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	db, err := badgerstorage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open index storage: %w", err)
	}
	storage := badgerstorage.NewIndexStorage(db, logger)

	llmService, err := llm.NewService(config, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	cache := index.NewCache(storage, logger)
	normalizer := alias.NewNormalizer(config.KB.AliasesFile, logger)
	retrieverService := retriever.NewRetriever(cache, config.KB.IndexName, normalizer,
		llmService, config.Retrieval, logger)

	faqEntries, err := ingest.LoadFAQEntries(config.KB.FAQFile)
	if err != nil {
		logger.Warn().Err(err).Str("path", config.KB.FAQFile).Msg("FAQ table unavailable, fast path disabled")
	}
	faqService := faq.NewMatcher(faqEntries, logger)

	orchestrator := answer.NewOrchestrator(faqService, retrieverService, llmService,
		config.Retrieval, config.FAQ.Threshold, logger)

	a := &App{
		Config:       config,
		Logger:       logger,
		DB:           db,
		Storage:      storage,
		LLM:          llmService,
		Cache:        cache,
		Retriever:    retrieverService,
		FAQ:          faqService,
		Orchestrator: orchestrator,
	}

	a.AskHandler = handlers.NewAskHandler(orchestrator, logger)
	a.SearchHandler = handlers.NewSearchHandler(retrieverService, logger)
	a.StatusHandler = handlers.NewStatusHandler(storage, llmService, config.KB.IndexName, logger)

	if config.Processing.Enabled {
		a.Scheduler = processing.NewScheduler(&config.Processing, a.RebuildIndex, logger)
		if err := a.Scheduler.Start(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to start reindex scheduler: %w", err)
		}
		// No index yet means the first cron slot could be hours away;
		// kick off a build now so the service becomes answerable.
		if !storage.HasIndex(config.KB.IndexName) {
			a.Scheduler.RunNow()
		}
	}

	return a, nil
}

// RebuildIndex re-ingests the knowledge base, rebuilds the vector index,
// and invalidates the cache so the next query serves the fresh build.
func (a *App) RebuildIndex(ctx context.Context) error {
	manifest, err := ingest.LoadManifest(a.Config.KB.Manifest)
	if err != nil {
		return fmt.Errorf("failed to load KB manifest: %w", err)
	}

	chunker, err := ingest.NewChunker(a.Config.Chunk.Size, a.Config.Chunk.Overlap)
	if err != nil {
		return err
	}

	chunks, err := ingest.NewIngestor(chunker, a.Logger).Ingest(manifest)
	if err != nil {
		return err
	}

	builder := index.NewBuilder(a.LLM, a.Storage, a.Logger)
	if _, err := builder.Build(ctx, a.Config.KB.IndexName, chunks); err != nil {
		return err
	}

	a.Cache.Invalidate(a.Config.KB.IndexName)
	return nil
}

// Close stops the scheduler and releases service resources
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close index storage")
		}
	}
}
