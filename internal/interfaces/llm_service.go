package interfaces

import "context"

// GenerationRequest is a provider-agnostic request for one answer. A nil
// Temperature uses the provider's configured default; zero is a valid
// override.
type GenerationRequest struct {
	SystemPrompt string
	Question     string
	Context      string
	Model        string
	Temperature  *float32
}

// TokenSink receives streamed answer tokens in order. Returning an error
// cancels the stream.
type TokenSink func(token string) error

// LLMService provides embeddings and answer generation. Implementations
// must produce fixed-dimensionality embeddings per model; unit
// normalization of vectors happens in the index layer and must match
// between build and query time.
type LLMService interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call,
	// preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Generate produces the full answer in one call.
	Generate(ctx context.Context, req *GenerationRequest) (string, error)

	// GenerateStream streams answer tokens into sink. An error after
	// partial output means the stream terminated abnormally.
	GenerateStream(ctx context.Context, req *GenerationRequest, sink TokenSink) error

	// EmbeddingModel returns the embedding model identifier.
	EmbeddingModel() string

	// Dimension returns the embedding dimensionality.
	Dimension() int

	// HealthCheck verifies the service can handle requests.
	HealthCheck(ctx context.Context) error

	// Close releases client resources.
	Close() error
}
