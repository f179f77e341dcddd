// -----------------------------------------------------------------------
// Alias normalization: rewrites colloquial tram terms in user queries to
// the canonical names used in the knowledge base, so query embeddings
// line up with indexed text.
// -----------------------------------------------------------------------

package alias

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
)

// rule maps one alias substring to its canonical replacement
type rule struct {
	alias     string
	canonical string
}

// Normalizer lowercases a query and applies every alias substitution in
// the order the alias file declares them. Substitution order matters:
// later rules see the output of earlier ones.
type Normalizer struct {
	rules  []rule
	logger arbor.ILogger
}

// NewNormalizer loads the alias table from path. A missing or malformed
// file yields an empty table, which makes Normalize a lowercase-and-trim
// pass-through.
func NewNormalizer(path string, logger arbor.ILogger) *Normalizer {
	n := &Normalizer{logger: logger}

	rules, err := loadRules(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Alias table unavailable, queries pass through unchanged")
		return n
	}
	n.rules = rules
	logger.Debug().Int("rules", len(rules)).Str("path", path).Msg("Alias table loaded")
	return n
}

// Normalize rewrites query for retrieval: lowercase, trim, and apply all
// alias substitutions. A whitespace-only query normalizes to "".
func (n *Normalizer) Normalize(query string) string {
	out := strings.ToLower(strings.TrimSpace(query))
	if out == "" {
		return ""
	}
	for _, r := range n.rules {
		out = applyRule(out, r)
	}
	return out
}

// applyRule substitutes every occurrence of the alias, except inside a
// span that already reads as the canonical term. An alias can be a
// substring of its canonical term; consuming canonical spans wholesale
// keeps Normalize stable under repeated application without skipping
// genuine alias occurrences elsewhere in the query.
func applyRule(s string, r rule) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], r.canonical) {
			b.WriteString(r.canonical)
			i += len(r.canonical)
			continue
		}
		if strings.HasPrefix(s[i:], r.alias) {
			b.WriteString(r.canonical)
			i += len(r.alias)
			continue
		}
		_, w := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+w])
		i += w
	}
	return b.String()
}

// Rules returns the number of loaded substitution rules
func (n *Normalizer) Rules() int {
	return len(n.rules)
}

// loadRules parses {"canonical term": ["alias", ...], ...} keeping the
// file's declaration order. encoding/json maps drop ordering, so this
// walks the token stream instead.
func loadRules(path string) ([]rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}
	data = []byte(strings.TrimPrefix(string(data), "\xef\xbb\xbf"))

	dec := json.NewDecoder(strings.NewReader(string(data)))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse alias file: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("alias file must contain a JSON object")
	}

	var rules []rule
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse alias file: %w", err)
		}
		canonical, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("alias file has a non-string key")
		}

		var aliases []string
		if err := dec.Decode(&aliases); err != nil {
			return nil, fmt.Errorf("aliases for %q must be a string array: %w", canonical, err)
		}

		canonical = strings.ToLower(strings.TrimSpace(canonical))
		for _, a := range aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" || canonical == "" || a == canonical {
				continue
			}
			rules = append(rules, rule{alias: a, canonical: canonical})
		}
	}

	return rules, nil
}
