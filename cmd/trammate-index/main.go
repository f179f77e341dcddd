package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/index"
	"github.com/ternarybob/trammate/internal/ingest"
	"github.com/ternarybob/trammate/internal/services/llm"
	badgerstorage "github.com/ternarybob/trammate/internal/storage/badger"
)

var (
	configPath   = flag.String("config", "", "Configuration file path")
	manifestPath = flag.String("manifest", "", "KB sources manifest (overrides config)")
	verifyQuery  = flag.String("verify", "", "Run a smoke search with this query after the build")
	showVersion  = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("TramMate indexer version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		if _, err := os.Stat("trammate.toml"); err == nil {
			path = "trammate.toml"
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if *manifestPath != "" {
		config.KB.Manifest = *manifestPath
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	start := time.Now()
	logger.Info().
		Str("manifest", config.KB.Manifest).
		Str("index", config.KB.IndexName).
		Msg("Building knowledge base index")

	manifest, err := ingest.LoadManifest(config.KB.Manifest)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load KB manifest")
	}

	chunker, err := ingest.NewChunker(config.Chunk.Size, config.Chunk.Overlap)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid chunker configuration")
	}

	chunks, err := ingest.NewIngestor(chunker, logger).Ingest(manifest)
	if err != nil {
		logger.Fatal().Err(err).Msg("Knowledge base ingestion failed")
	}
	logger.Info().Int("chunks", len(chunks)).Msg("Ingestion complete")

	db, err := badgerstorage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open index storage")
	}
	defer db.Close()
	storage := badgerstorage.NewIndexStorage(db, logger)

	llmService, err := llm.NewService(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize LLM service")
	}
	defer llmService.Close()

	ctx := context.Background()
	builder := index.NewBuilder(llmService, storage, logger)
	idx, err := builder.Build(ctx, config.KB.IndexName, chunks)
	if err != nil {
		logger.Fatal().Err(err).Msg("Index build failed")
	}

	if *verifyQuery != "" {
		if err := builder.Verify(ctx, idx, *verifyQuery); err != nil {
			logger.Fatal().Err(err).Msg("Index verification failed")
		}
	}

	logger.Info().
		Int("vectors", idx.Len()).
		Str("duration", time.Since(start).String()).
		Msg("Index build complete")
}
