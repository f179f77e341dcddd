package ingest

import (
	"fmt"
	"iter"

	"github.com/ternarybob/trammate/internal/models"
)

// Chunker splits cleaned text into overlapping fixed-size character
// windows. Splitting is deterministic: identical input and configuration
// produce an identical chunk sequence.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates the window parameters. A negative overlap is
// clamped to zero; overlap at or above size can never advance and is a
// configuration error.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidConfig, size)
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be less than chunk size (%d)",
			models.ErrInvalidConfig, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunks lazily yields the windows for one document. Every window except
// the last has exactly size characters; consecutive windows overlap by
// the configured amount. The advance step is floored at 1 character.
// Windows count runes, not bytes, so a multibyte rune is never split
// across a boundary. Offsets in metadata are rune offsets.
func (c *Chunker) Chunks(text, source string) iter.Seq[models.Chunk] {
	return func(yield func(models.Chunk) bool) {
		step := c.size - c.overlap
		if step < 1 {
			step = 1
		}

		runes := []rune(text)
		n := len(runes)
		for i := 0; i < n; i += step {
			j := i + c.size
			if j > n {
				j = n
			}
			chunk := models.Chunk{
				Text: string(runes[i:j]),
				Metadata: map[string]any{
					models.MetaSource: source,
					models.MetaOffset: i,
				},
			}
			if !yield(chunk) {
				return
			}
			if j == n {
				return
			}
		}
	}
}

// Split collects the full window sequence for one document.
func (c *Chunker) Split(text, source string) []models.Chunk {
	var out []models.Chunk
	for chunk := range c.Chunks(text, source) {
		out = append(out, chunk)
	}
	return out
}
