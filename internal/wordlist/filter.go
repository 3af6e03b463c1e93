// Package wordlist provides word list filtering helpers.
package wordlist

import (
	"strings"
	"unicode"
)

// Clean trims entries, collapses inner whitespace, and drops blanks and
// case-insensitive duplicates. The first occurrence keeps its position.
func Clean(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Join(strings.FieldsFunc(w, unicode.IsSpace), " ")
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, w)
	}
	return out
}
