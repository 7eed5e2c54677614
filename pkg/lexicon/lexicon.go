// Package lexicon provides the shared keyword sets that drive behavior
// scoring and state selection. Sets are plain values constructed once and
// injected into consumers; nothing in this package holds mutable state.
package lexicon

import (
	"sort"
	"strings"
)

// Set is an immutable collection of lowercase keywords matched by substring.
type Set struct {
	keywords []string
}

// NewSet builds a Set from the given keywords. Input is lowercased and
// sorted so iteration order is stable.
func NewSet(keywords ...string) Set {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw = append(kw, k)
		}
	}
	sort.Strings(kw)
	return Set{keywords: kw}
}

// ContainsAny reports whether any keyword occurs in textLower.
// The caller is responsible for lowercasing the text once.
func (s Set) ContainsAny(textLower string) bool {
	for _, kw := range s.keywords {
		if strings.Contains(textLower, kw) {
			return true
		}
	}
	return false
}

// Count returns the number of distinct keywords present in textLower.
func (s Set) Count(textLower string) int {
	n := 0
	for _, kw := range s.keywords {
		if strings.Contains(textLower, kw) {
			n++
		}
	}
	return n
}

// CountWeighted returns Count multiplied by weight.
func (s Set) CountWeighted(textLower string, weight int) int {
	return s.Count(textLower) * weight
}

// Matches returns the keywords present in textLower, in sorted order.
func (s Set) Matches(textLower string) []string {
	var out []string
	for _, kw := range s.keywords {
		if strings.Contains(textLower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// Len returns the number of keywords in the set.
func (s Set) Len() int { return len(s.keywords) }

// WordSet matches whole words only. Used for short verbs where substring
// matching would be too eager ("send" inside "sender").
type WordSet struct {
	words map[string]struct{}
}

// NewWordSet builds a WordSet from the given words.
func NewWordSet(words ...string) WordSet {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m[w] = struct{}{}
		}
	}
	return WordSet{words: m}
}

// ContainsAny reports whether any word of textLower (whitespace split) is
// in the set.
func (w WordSet) ContainsAny(textLower string) bool {
	for _, tok := range strings.Fields(textLower) {
		if _, ok := w.words[tok]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of words in the set.
func (w WordSet) Len() int { return len(w.words) }
