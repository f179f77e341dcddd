package faq

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/trammate/internal/interfaces"
	"github.com/ternarybob/trammate/internal/models"
)

// matcher answers common questions straight from the curated FAQ file,
// skipping retrieval and generation. Exact matches win; otherwise the
// best token-sort fuzzy score above the threshold does.
type matcher struct {
	variants []models.FAQVariant
	logger   arbor.ILogger
}

// NewMatcher builds an FAQ matcher from the loaded entries. Each entry
// expands to one variant per phrasing: the canonical question first, then
// its aliases in order. Entries without an answer are dropped.
func NewMatcher(entries []models.FAQEntry, logger arbor.ILogger) interfaces.FAQService {
	var variants []models.FAQVariant
	for _, e := range entries {
		answer := strings.TrimSpace(e.Answer)
		if answer == "" {
			continue
		}
		for _, q := range append([]string{e.Question}, e.Aliases...) {
			q = strings.ToLower(strings.TrimSpace(q))
			if q == "" {
				continue
			}
			variants = append(variants, models.FAQVariant{Query: q, Answer: answer})
		}
	}
	logger.Debug().Int("variants", len(variants)).Msg("FAQ matcher ready")
	return &matcher{variants: variants, logger: logger}
}

// Match returns the answer for query when a variant matches exactly
// (case-insensitive) or scores at least threshold on token-sort ratio.
// Score ties resolve to the earliest variant.
func (m *matcher) Match(query string, threshold int) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(m.variants) == 0 {
		return "", false
	}

	for _, v := range m.variants {
		if v.Query == q {
			return v.Answer, true
		}
	}

	bestScore := -1
	bestAnswer := ""
	for _, v := range m.variants {
		score := fuzzy.TokenSortRatio(q, v.Query)
		if score > bestScore {
			bestScore = score
			bestAnswer = v.Answer
		}
	}
	if bestScore >= threshold {
		m.logger.Debug().Int("score", bestScore).Str("query", q).Msg("FAQ fuzzy match")
		return bestAnswer, true
	}
	return "", false
}
