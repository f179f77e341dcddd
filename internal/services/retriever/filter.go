package retriever

import (
	"fmt"
	"strings"

	"github.com/ternarybob/trammate/internal/models"
)

// ApplyFilters keeps the chunks matching every filter, preserving their
// order. Unknown operators never match.
func ApplyFilters(chunks []models.Chunk, filters []models.FieldFilter) []models.Chunk {
	if len(filters) == 0 {
		return chunks
	}
	out := make([]models.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if matchesAll(c, filters) {
			out = append(out, c)
		}
	}
	return out
}

func matchesAll(c models.Chunk, filters []models.FieldFilter) bool {
	for _, f := range filters {
		if !matches(c, f) {
			return false
		}
	}
	return true
}

// matches evaluates one filter against chunk metadata. String comparisons
// are case-insensitive; non-string metadata values compare through their
// default formatting. A missing key fails every operator except neq,
// which treats absence as "not equal".
func matches(c models.Chunk, f models.FieldFilter) bool {
	value, present := fieldValue(c, f.Key)

	switch f.Op {
	case models.FilterExists:
		return present
	case models.FilterNeq:
		if !present {
			return true
		}
		return !strings.EqualFold(value, f.Value)
	}

	if !present {
		return false
	}
	have := strings.ToLower(value)
	want := strings.ToLower(f.Value)

	switch f.Op {
	case models.FilterEq:
		return have == want
	case models.FilterContains:
		return strings.Contains(have, want)
	case models.FilterPrefix:
		return strings.HasPrefix(have, want)
	case models.FilterSuffix:
		return strings.HasSuffix(have, want)
	default:
		return false
	}
}

// fieldValue reads one metadata value as comparison text. Non-string
// values (row indexes, offsets) compare through their default formatting.
func fieldValue(c models.Chunk, key string) (string, bool) {
	if s, ok := c.MetaString(key); ok {
		return s, true
	}
	v, ok := c.Metadata[key]
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}
