package ingest

import (
	"regexp"
	"strings"
)

var (
	controlRe    = regexp.MustCompile(`[\t\x0b\x0c\r]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanWhitespace normalizes raw source text before chunking: tabs and
// control characters become single spaces, non-breaking spaces are
// normalized, and whitespace runs collapse to one space.
func CleanWhitespace(s string) string {
	s = controlRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
