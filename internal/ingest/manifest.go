package ingest

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/trammate/internal/models"
)

// Manifest lists the knowledge base sources by kind. Paths are relative
// to the working directory; missing files are skipped with a warning so
// a partial knowledge base still builds.
type Manifest struct {
	Sources struct {
		Markdown []string `yaml:"markdown"`
		PDFs     []string `yaml:"pdfs"`
		CSVs     []string `yaml:"csvs"`
		FAQs     []string `yaml:"faqs"`
	} `yaml:"sources"`
}

// LoadManifest reads the YAML sources manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Ingestor walks all manifest sources and produces the full chunk set
// for one index build.
type Ingestor struct {
	chunker *Chunker
	pdf     *PDFExtractor
	logger  arbor.ILogger
}

// NewIngestor creates an ingestor with the given window chunker.
func NewIngestor(chunker *Chunker, logger arbor.ILogger) *Ingestor {
	return &Ingestor{
		chunker: chunker,
		pdf:     NewPDFExtractor(logger),
		logger:  logger,
	}
}

// Ingest reads every listed source and returns the combined chunk
// sequence, in manifest order. The order is deterministic so rebuilds of
// unchanged inputs produce identical indexes.
func (in *Ingestor) Ingest(m *Manifest) ([]models.Chunk, error) {
	var all []models.Chunk

	for _, path := range m.Sources.PDFs {
		if !in.exists(path) {
			continue
		}
		chunks, err := in.pdf.PDFChunks(path, in.chunker)
		if err != nil {
			in.logger.Warn().Err(err).Str("path", path).Msg("PDF extraction failed, skipping source")
			continue
		}
		all = append(all, chunks...)
	}

	for _, path := range m.Sources.Markdown {
		if !in.exists(path) {
			continue
		}
		chunks, err := MarkdownChunks(path, in.chunker)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}

	for _, path := range m.Sources.FAQs {
		if !in.exists(path) {
			continue
		}
		chunks, err := FAQChunks(path)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}

	for _, path := range m.Sources.CSVs {
		if !in.exists(path) {
			continue
		}
		chunks, err := CSVChunks(path)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}

	in.logger.Info().Int("chunks", len(all)).Msg("Knowledge base ingestion complete")
	return all, nil
}

func (in *Ingestor) exists(path string) bool {
	if _, err := os.Stat(path); err != nil {
		in.logger.Warn().Str("path", path).Msg("Source listed in manifest not found, skipping")
		return false
	}
	return true
}
