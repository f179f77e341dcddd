// -----------------------------------------------------------------------
// PDF ingestion - extract text content from PDF sources with pdfcpu
// -----------------------------------------------------------------------

package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/models"
)

// minParagraphLen filters decoration and page furniture out of extracted
// PDF text before chunking.
const minParagraphLen = 60

// PDFExtractor extracts plain text from PDF files using pdfcpu.
type PDFExtractor struct {
	logger  arbor.ILogger
	tempDir string
}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor(logger arbor.ILogger) *PDFExtractor {
	tempDir := filepath.Join(os.TempDir(), "trammate-pdf")
	os.MkdirAll(tempDir, 0755)

	return &PDFExtractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractText extracts all text content from a PDF file, in page order.
func (e *PDFExtractor) ExtractText(path string) (string, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%d", os.Getpid()))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract PDF content: %w", err)
	}

	// pdfcpu writes one content file per page; stitch them back together
	// in page order.
	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	var fullText strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if text, ok := pageTexts[pageNum]; ok {
			if fullText.Len() > 0 {
				fullText.WriteString("\n\n")
			}
			fullText.WriteString(text)
		}
	}

	return fullText.String(), nil
}

// PDFChunks extracts a PDF's text, drops short decoration paragraphs and
// splits the remainder into character windows.
func (e *PDFExtractor) PDFChunks(path string, chunker *Chunker) ([]models.Chunk, error) {
	raw, err := e.ExtractText(path)
	if err != nil {
		return nil, err
	}

	var paras []string
	for _, p := range strings.Split(raw, "\n\n") {
		p = CleanWhitespace(p)
		if len(p) >= minParagraphLen {
			paras = append(paras, p)
		}
	}
	if len(paras) == 0 {
		e.logger.Warn().Str("path", path).Msg("No usable text extracted from PDF")
		return nil, nil
	}

	text := strings.Join(paras, " ")
	return chunker.Split(text, path), nil
}
