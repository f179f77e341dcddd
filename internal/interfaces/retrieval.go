package interfaces

import (
	"context"

	"github.com/ternarybob/trammate/internal/models"
)

// RetrievalParams are the request-scoped knobs for one retrieval. Lambda
// is a pointer because zero is a valid setting (maximum diversification),
// distinct from unset.
type RetrievalParams struct {
	TopK    int
	FetchK  int
	Lambda  *float32
	Filters []models.FieldFilter
}

// RetrieverService turns a raw user query into a ranked, diversified
// chunk list: alias normalization, query embedding, MMR search, metadata
// post-filter.
type RetrieverService interface {
	Retrieve(ctx context.Context, query string, params RetrievalParams) ([]models.Chunk, error)
}

// FAQService answers common questions from the curated table before the
// retrieval pipeline runs.
type FAQService interface {
	// Match returns the canonical answer and true when the query matches
	// a stored variant exactly or fuzzily at or above threshold.
	Match(query string, threshold int) (string, bool)
}
