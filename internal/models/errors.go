package models

import "errors"

var (
	// ErrInvalidConfig indicates malformed chunking or retrieval
	// parameters. Fatal to the offline build step.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrIndexNotFound indicates the vector index is missing or
	// unreadable at serving time. Always wrapped with a rebuild hint.
	ErrIndexNotFound = errors.New("vector index not found")

	// ErrEmbeddingFailure indicates the embedding call failed. There is
	// no fallback embedding; it propagates to the caller.
	ErrEmbeddingFailure = errors.New("embedding failed")

	// ErrGenerationFailure indicates generation failed after the single
	// non-streaming retry.
	ErrGenerationFailure = errors.New("generation failed")

	// ErrNoRelevantContext is returned when retrieval yields nothing and
	// the require-context policy is active. A user-facing result, not a
	// crash.
	ErrNoRelevantContext = errors.New("no relevant context retrieved")
)
