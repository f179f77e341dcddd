package models

import "time"

// Standard metadata keys set by the ingestion pipeline.
const (
	MetaSource    = "source"
	MetaType      = "type"
	MetaRow       = "row"
	MetaIndex  = "idx"
	MetaOffset = "offset"
)

// Chunk is the unit of retrieval: a bounded span of source text plus
// provenance metadata. Chunks are immutable once created; the whole set
// is rebuilt wholesale on reindex.
type Chunk struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Source returns the source identifier from metadata, or "unknown" when
// the chunk carries none.
func (c Chunk) Source() string {
	if s, ok := c.Metadata[MetaSource].(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// MetaString returns a metadata value as a string. Integer values are not
// converted; use the raw map for those.
func (c Chunk) MetaString(key string) (string, bool) {
	v, ok := c.Metadata[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IndexedVector pairs a unit-normalized embedding with its chunk payload.
// ID is the insertion position within the index; it is not stable across
// rebuilds.
type IndexedVector struct {
	ID     uint64
	Vector []float32
	Chunk  Chunk
}

// IndexManifest records what an on-disk index was built with. Load-time
// model/dimension checks compare against it.
type IndexManifest struct {
	Name      string
	Model     string
	Dimension int
	Count     int
	BuiltAt   time.Time
}
