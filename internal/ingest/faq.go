package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/trammate/internal/models"
)

// faqFile matches the {"faqs": [...]} wrapper form of the FAQ file.
type faqFile struct {
	FAQs []models.FAQEntry `json:"faqs"`
}

// LoadFAQEntries reads the curated FAQ file. Both the wrapped object form
// and a bare array are accepted, and a UTF-8 byte-order mark is
// tolerated.
func LoadFAQEntries(path string) ([]models.FAQEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read FAQ file %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var wrapped faqFile
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.FAQs != nil {
		return wrapped.FAQs, nil
	}

	var entries []models.FAQEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse FAQ file %s: %w", path, err)
	}
	return entries, nil
}

// FAQChunks turns each FAQ record into exactly one chunk tagged with its
// item index, so the curated answers are also retrievable through the
// vector index.
func FAQChunks(path string) ([]models.Chunk, error) {
	entries, err := LoadFAQEntries(path)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for i, entry := range entries {
		q := strings.TrimSpace(entry.Question)
		a := strings.TrimSpace(entry.Answer)

		var text string
		if q != "" && a != "" {
			text = fmt.Sprintf("Q: %s\nA: %s", q, a)
		} else {
			// Malformed record: keep it searchable as raw JSON rather
			// than dropping data on the floor.
			raw, err := json.Marshal(entry)
			if err != nil {
				continue
			}
			text = string(raw)
		}

		chunks = append(chunks, models.Chunk{
			Text: text,
			Metadata: map[string]any{
				models.MetaSource: path,
				models.MetaType:   "faq",
				models.MetaIndex:  i,
			},
		})
	}

	return chunks, nil
}
