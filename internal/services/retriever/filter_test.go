package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/trammate/internal/models"
)

func chunk(text string, meta map[string]any) models.Chunk {
	return models.Chunk{Text: text, Metadata: meta}
}

func TestApplyFiltersNoFilters(t *testing.T) {
	chunks := []models.Chunk{chunk("a", nil), chunk("b", nil)}
	assert.Equal(t, chunks, ApplyFilters(chunks, nil))
}

func TestApplyFiltersOps(t *testing.T) {
	chunks := []models.Chunk{
		chunk("csv", map[string]any{models.MetaSource: "routes.csv", models.MetaType: "csv", models.MetaRow: 3}),
		chunk("faq", map[string]any{models.MetaSource: "faq.json", models.MetaType: "faq"}),
		chunk("md", map[string]any{models.MetaSource: "network.md"}),
	}

	tests := []struct {
		name   string
		filter models.FieldFilter
		want   []string
	}{
		{"eq", models.FieldFilter{Key: models.MetaType, Op: models.FilterEq, Value: "csv"}, []string{"csv"}},
		{"eq case insensitive", models.FieldFilter{Key: models.MetaType, Op: models.FilterEq, Value: "CSV"}, []string{"csv"}},
		{"neq keeps missing key", models.FieldFilter{Key: models.MetaType, Op: models.FilterNeq, Value: "csv"}, []string{"faq", "md"}},
		{"contains", models.FieldFilter{Key: models.MetaSource, Op: models.FilterContains, Value: "route"}, []string{"csv"}},
		{"prefix", models.FieldFilter{Key: models.MetaSource, Op: models.FilterPrefix, Value: "faq"}, []string{"faq"}},
		{"suffix", models.FieldFilter{Key: models.MetaSource, Op: models.FilterSuffix, Value: ".md"}, []string{"md"}},
		{"exists", models.FieldFilter{Key: models.MetaType, Op: models.FilterExists}, []string{"csv", "faq"}},
		{"eq non-string value", models.FieldFilter{Key: models.MetaRow, Op: models.FilterEq, Value: "3"}, []string{"csv"}},
		{"missing key fails eq", models.FieldFilter{Key: "absent", Op: models.FilterEq, Value: "x"}, []string{}},
		{"unknown op matches nothing", models.FieldFilter{Key: models.MetaType, Op: "gt", Value: "a"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(chunks, []models.FieldFilter{tt.filter})
			texts := make([]string, 0, len(got))
			for _, c := range got {
				texts = append(texts, c.Text)
			}
			assert.Equal(t, tt.want, texts)
		})
	}
}

func TestApplyFiltersAreANDed(t *testing.T) {
	chunks := []models.Chunk{
		chunk("a", map[string]any{models.MetaType: "csv", models.MetaSource: "routes.csv"}),
		chunk("b", map[string]any{models.MetaType: "csv", models.MetaSource: "stops.csv"}),
	}
	got := ApplyFilters(chunks, []models.FieldFilter{
		{Key: models.MetaType, Op: models.FilterEq, Value: "csv"},
		{Key: models.MetaSource, Op: models.FilterPrefix, Value: "stops"},
	})
	assert.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Text)
}

func TestApplyFiltersPreservesOrder(t *testing.T) {
	chunks := []models.Chunk{
		chunk("first", map[string]any{models.MetaType: "md"}),
		chunk("second", map[string]any{models.MetaType: "md"}),
		chunk("third", map[string]any{models.MetaType: "md"}),
	}
	got := ApplyFilters(chunks, []models.FieldFilter{
		{Key: models.MetaType, Op: models.FilterEq, Value: "md"},
	})
	assert.Equal(t, chunks, got)
}
