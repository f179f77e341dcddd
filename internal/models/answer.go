package models

// FilterOp is a comparison operator for metadata post-filtering.
type FilterOp string

const (
	FilterEq       FilterOp = "eq"
	FilterNeq      FilterOp = "neq"
	FilterContains FilterOp = "contains"
	FilterPrefix   FilterOp = "prefix"
	FilterSuffix   FilterOp = "suffix"
	FilterExists   FilterOp = "exists"
)

// FieldFilter is a serializable metadata predicate: key, operator, value.
// All filters on a request must pass for a chunk to be kept.
type FieldFilter struct {
	Key   string   `json:"key"`
	Op    FilterOp `json:"op"`
	Value string   `json:"value,omitempty"`
}

// AskRequest carries one question plus its request-scoped session
// parameters. Nothing here is persisted. Temperature, Lambda and
// RequireContext are pointers because their zero values are valid
// settings, distinct from "use the configured default".
type AskRequest struct {
	Question       string        `json:"question"`
	Model          string        `json:"model,omitempty"`
	Temperature    *float32      `json:"temperature,omitempty"`
	TopK           int           `json:"top_k,omitempty"`
	FetchK         int           `json:"fetch_k,omitempty"`
	Lambda         *float32      `json:"mmr_lambda,omitempty"`
	Filters        []FieldFilter `json:"filters,omitempty"`
	RequireContext *bool         `json:"require_context,omitempty"`
	ShowChunks     bool          `json:"show_chunks,omitempty"`
}

// AnswerState is the terminal state of one answer request.
type AnswerState string

const (
	// StateAnswered means an answer was produced, from the FAQ table or
	// from generation.
	StateAnswered AnswerState = "answered"
	// StateNoContext means retrieval was empty and the require-context
	// policy stopped the request before generation.
	StateNoContext AnswerState = "no_context"
	// StateFailed means generation failed, including the one
	// non-streaming retry.
	StateFailed AnswerState = "failed"
)

// AnswerSource identifies where the answer text came from.
type AnswerSource string

const (
	SourceFAQ       AnswerSource = "faq"
	SourceGenerated AnswerSource = "generated"
)

// Answer is the terminal result of one request. Err is set only for
// StateFailed and carries full failure detail for diagnostics.
type Answer struct {
	Text      string       `json:"text"`
	State     AnswerState  `json:"state"`
	Source    AnswerSource `json:"source,omitempty"`
	Chunks    []Chunk      `json:"chunks,omitempty"`
	RequestID string       `json:"request_id"`
	Err       error        `json:"-"`
}
