package retriever

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/common"
	"github.com/ternarybob/trammate/internal/index"
	"github.com/ternarybob/trammate/internal/interfaces"
	"github.com/ternarybob/trammate/internal/models"
	"github.com/ternarybob/trammate/internal/services/alias"
)

// Bounds on the per-request top_k override. Values outside are clamped,
// not rejected, so a sloppy client still gets a sensible retrieval.
const (
	minTopK = 3
	maxTopK = 12
)

type retrieverService struct {
	cache      *index.Cache
	indexName  string
	normalizer *alias.Normalizer
	llm        interfaces.LLMService
	defaults   common.RetrievalConfig
	logger     arbor.ILogger
}

// NewRetriever creates the retrieval pipeline: alias normalization, query
// embedding, MMR search over the cached index, metadata post-filter.
func NewRetriever(cache *index.Cache, indexName string, normalizer *alias.Normalizer,
	llm interfaces.LLMService, defaults common.RetrievalConfig, logger arbor.ILogger) interfaces.RetrieverService {
	return &retrieverService{
		cache:      cache,
		indexName:  indexName,
		normalizer: normalizer,
		llm:        llm,
		defaults:   defaults,
		logger:     logger,
	}
}

func (r *retrieverService) Retrieve(ctx context.Context, query string, params interfaces.RetrievalParams) ([]models.Chunk, error) {
	normalized := r.normalizer.Normalize(query)
	if normalized == "" {
		return nil, nil
	}

	topK, selectK, fetchK, lambda := r.resolveParams(params)

	idx, err := r.cache.Get(r.indexName)
	if err != nil {
		return nil, err
	}

	embedding, err := r.llm.Embed(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w: %w", models.ErrEmbeddingFailure, err)
	}

	results := idx.SearchMMR(index.Normalize(embedding), selectK, fetchK, float64(lambda))

	chunks := make([]models.Chunk, 0, len(results))
	for _, res := range results {
		chunks = append(chunks, res.Chunk)
	}

	chunks = ApplyFilters(chunks, params.Filters)
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}

	r.logger.Debug().
		Str("query", normalized).
		Int("top_k", topK).
		Int("fetch_k", fetchK).
		Int("chunks", len(chunks)).
		Msg("Retrieval complete")

	return chunks, nil
}

// resolveParams fills unset request knobs from config defaults and clamps
// them to safe ranges. topK bounds the final result; selectK is how many
// chunks MMR picks before the post-filter runs, widened to the oversample
// pool when metadata filters apply so the filter has candidates to
// discard.
func (r *retrieverService) resolveParams(params interfaces.RetrievalParams) (topK, selectK, fetchK int, lambda float32) {
	topK = params.TopK
	if topK == 0 {
		topK = r.defaults.TopK
	}
	if topK < minTopK {
		topK = minTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	selectK = topK
	if len(params.Filters) > 0 && r.defaults.Oversample > selectK {
		selectK = r.defaults.Oversample
	}

	fetchK = params.FetchK
	if fetchK == 0 {
		fetchK = r.defaults.FetchK
	}
	if fetchK < selectK {
		fetchK = selectK
	}

	lambda = r.defaults.MMRLambda
	if params.Lambda != nil {
		lambda = *params.Lambda
	}
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return topK, selectK, fetchK, lambda
}
