// Package suggest picks the "did you mean" candidate for a mistyped word.
package suggest

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Closest returns the candidate that best matches input as a fuzzy
// subsequence, or "" when no candidate matches.
func Closest(input string, candidates []string) string {
	matches := fuzzy.Find(strings.ToLower(input), candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
