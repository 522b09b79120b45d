package textutil

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nonAlnumPattern matches everything a token comparison ignores.
var nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)

var lowerCaser = cases.Lower(language.Und)

// Lower lower-cases text using Unicode case mapping.
func Lower(text string) string {
	return lowerCaser.String(text)
}

// NormalizeWord lower-cases and trims a transcript token.
func NormalizeWord(word string) string {
	return strings.TrimSpace(Lower(word))
}

// QuoteTokens splits a quote on whitespace and lower-cases each token.
// Returns nil for blank input.
func QuoteTokens(quote string) []string {
	fields := strings.Fields(Lower(quote))
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// StripNonAlnum removes every character outside [a-z0-9]. Callers lower-case first.
func StripNonAlnum(token string) string {
	return nonAlnumPattern.ReplaceAllString(token, "")
}

// TokensMatch reports whether two cleaned tokens are equal or either contains
// the other. An empty token is contained in everything.
func TokensMatch(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// FormatClock renders seconds as M:SS with minutes unpadded.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
