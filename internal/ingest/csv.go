package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/trammate/internal/models"
)

// maxCSVFields caps how many key=value pairs one row summary carries.
const maxCSVFields = 8

// CSVChunks turns each row of a curated CSV into exactly one record
// chunk: a concise "Tram data" summary line tagged with its row index.
// Rows align to logical records; the character-window chunker is not
// applied here.
func CSVChunks(path string) ([]models.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header from %s: %w", path, err)
	}

	var chunks []models.Chunk
	for row := 0; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d from %s: %w", row, path, err)
		}

		var kv []string
		for i, v := range record {
			if i >= len(header) {
				break
			}
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			kv = append(kv, fmt.Sprintf("%s=%s", header[i], v))
			if len(kv) == maxCSVFields {
				break
			}
		}
		if len(kv) == 0 {
			continue
		}

		chunks = append(chunks, models.Chunk{
			Text: "Tram data: " + strings.Join(kv, " | "),
			Metadata: map[string]any{
				models.MetaSource: path,
				models.MetaRow:    row,
			},
		})
	}

	return chunks, nil
}
