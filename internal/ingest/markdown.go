package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/ternarybob/trammate/internal/models"
)

// MarkdownChunks reads a Markdown file, extracts its plain text and
// splits it into character windows.
func MarkdownChunks(path string, chunker *Chunker) ([]models.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown file %s: %w", path, err)
	}

	text := CleanWhitespace(extractMarkdownText(data))
	if text == "" {
		return nil, nil
	}
	return chunker.Split(text, path), nil
}

// extractMarkdownText walks the goldmark AST and collects the visible
// text, separating block elements with newlines so headings and
// paragraphs do not run together.
func extractMarkdownText(src []byte) string {
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch t := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
		case *ast.CodeSpan:
			// Inline code keeps its literal text via child Text nodes.
		default:
			if !entering && n.Type() == ast.TypeBlock {
				b.WriteString("\n\n")
			}
		}
		return ast.WalkContinue, nil
	})

	return b.String()
}
