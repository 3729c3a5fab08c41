// internal/utils/text.go

package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName canonicalizes scraped display text for comparison:
// Unicode compatibility normalization, whitespace collapsing, lower case.
// Portal pages mix NBSP and regular spaces inside agent and list names.
func NormalizeName(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}

// ContainsFold reports whether substr occurs in s after normalization.
func ContainsFold(s, substr string) bool {
	return strings.Contains(NormalizeName(s), NormalizeName(substr))
}

// HasPrefixFold reports whether s begins with prefix after normalization.
func HasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(NormalizeName(s), NormalizeName(prefix))
}
