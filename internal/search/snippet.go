package search

import (
	"strings"
	"unicode"

	"github.com/pders01/trvl/internal/post"
)

// Snippet picks the field of p that best matches terms, preferring the
// subtitle over the author, and trims it to maxLen runes. The title is shown
// separately by callers and is never returned.
func Snippet(p post.Post, terms []string, maxLen int) string {
	for _, field := range []string{p.Subtitle, p.Author} {
		if field != "" && matchesAny(field, terms) {
			return truncate(field, maxLen)
		}
	}
	return truncate(p.Subtitle, maxLen)
}

func matchesAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// tokenize breaks text into lower-cased searchable terms, skipping single chars
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	flush := func() {
		if term := current.String(); len([]rune(term)) > 1 {
			terms = append(terms, term)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			flush()
		}
	}
	flush()

	return terms
}

// truncate limits text length with ellipsis
func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if maxLen <= 0 || len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
