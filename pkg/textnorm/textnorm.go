// Package textnorm folds adversarial unicode before pattern matching.
// Scam senders pad keywords with zero-width characters and fullwidth
// lookalikes; folding first keeps the lexicons and regexes honest.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fold returns text normalized to NFKC with invisible formatting
// characters removed. Fullwidth forms ("ｕｒｇｅｎｔ") collapse to their
// ASCII equivalents under NFKC.
func Fold(text string) string {
	text = norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isInvisible(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FoldLower is Fold followed by lowercasing. Most consumers match against
// lowercase lexicons, so this is the common entry point.
func FoldLower(text string) string {
	return strings.ToLower(Fold(text))
}

// isInvisible reports format-category runes: zero-width space/joiners
// (U+200B..U+200D), the BOM (U+FEFF) and friends are all in Cf.
func isInvisible(r rune) bool {
	return unicode.Is(unicode.Cf, r)
}
