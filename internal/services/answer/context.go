package answer

import (
	"fmt"
	"strings"

	"github.com/ternarybob/trammate/internal/models"
)

// NoContextPlaceholder is what the model sees when retrieval came back
// empty but generation proceeds anyway.
const NoContextPlaceholder = "[no context retrieved]"

// AssembleContext renders retrieved chunks into the grounding block for
// the prompt. Each chunk is its text followed by a bracketed source tag,
// blocks separated by a blank line.
func AssembleContext(chunks []models.Chunk) string {
	if len(chunks) == 0 {
		return NoContextPlaceholder
	}
	blocks := make([]string, 0, len(chunks))
	for _, c := range chunks {
		blocks = append(blocks, fmt.Sprintf("%s\n[%s]", c.Text, c.Source()))
	}
	return strings.Join(blocks, "\n\n")
}
