package index

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/interfaces"
	"github.com/ternarybob/trammate/internal/models"
)

// embedBatchSize bounds how many chunks go to the embedding API per call
const embedBatchSize = 64

// Builder embeds chunks and persists the resulting index
type Builder struct {
	llm     interfaces.LLMService
	storage interfaces.IndexStorage
	logger  arbor.ILogger
}

// NewBuilder creates an index builder
func NewBuilder(llm interfaces.LLMService, storage interfaces.IndexStorage, logger arbor.ILogger) *Builder {
	return &Builder{
		llm:     llm,
		storage: storage,
		logger:  logger,
	}
}

// Build embeds all chunks, normalizes the vectors, and saves the index
// under name. The returned index is ready to search.
func (b *Builder) Build(ctx context.Context, name string, chunks []models.Chunk) (*VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to index")
	}

	start := time.Now()
	b.logger.Info().
		Str("index", name).
		Int("chunks", len(chunks)).
		Str("model", b.llm.EmbeddingModel()).
		Msg("Building index")

	vectors := make([]models.IndexedVector, 0, len(chunks))
	for offset := 0; offset < len(chunks); offset += embedBatchSize {
		end := offset + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[offset:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		embeddings, err := b.llm.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", offset, end-1, err)
		}
		if len(embeddings) != len(batch) {
			return nil, fmt.Errorf("embedding batch returned %d vectors for %d chunks",
				len(embeddings), len(batch))
		}

		for i, emb := range embeddings {
			vectors = append(vectors, models.IndexedVector{
				ID:     uint64(offset + i),
				Vector: Normalize(emb),
				Chunk:  batch[i],
			})
		}

		b.logger.Debug().
			Str("index", name).
			Int("embedded", len(vectors)).
			Int("total", len(chunks)).
			Msg("Embedding progress")
	}

	manifest := &models.IndexManifest{
		Name:      name,
		Model:     b.llm.EmbeddingModel(),
		Dimension: b.llm.Dimension(),
		Count:     len(vectors),
		BuiltAt:   time.Now().UTC(),
	}

	if err := b.storage.SaveIndex(manifest, vectors); err != nil {
		return nil, fmt.Errorf("failed to save index %s: %w", name, err)
	}

	b.logger.Info().
		Str("index", name).
		Int("vectors", len(vectors)).
		Str("duration", time.Since(start).String()).
		Msg("Index built")

	return New(manifest, vectors)
}

// Verify runs a smoke search against a freshly built index and reports
// the top result so a rebuild can be sanity-checked from the CLI.
func (b *Builder) Verify(ctx context.Context, idx *VectorIndex, query string) error {
	emb, err := b.llm.Embed(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to embed verification query: %w", err)
	}
	results := idx.Search(Normalize(emb), 1)
	if len(results) == 0 {
		return fmt.Errorf("verification search returned no results")
	}
	b.logger.Info().
		Str("query", query).
		Str("source", results[0].Chunk.Source()).
		Float64("similarity", results[0].Similarity).
		Msg("Index verification search")
	return nil
}
