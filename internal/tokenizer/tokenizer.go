// Package tokenizer normalizes raw text into comparison tokens.
//
// The same normalization is applied to document content at insertion time and
// to query strings at search time; indexing and search must agree on it or
// matching breaks.
package tokenizer

import (
	"strings"
)

// punctuation is the fixed set of characters stripped before splitting.
// It is part of the index contract: changing it invalidates existing
// snapshots, since stored filters were built with the old rules.
const punctuation = "(),.?!;:"

// Tokenize turns a raw string into normalized tokens: punctuation stripped,
// lowercased, split on whitespace with empty tokens discarded.
// It always succeeds and returns no tokens for empty or all-punctuation input.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, text)

	return strings.Fields(strings.ToLower(cleaned))
}

// Distinct returns the number of unique tokens in the slice.
// Bloom filter sizing uses the distinct count, not the raw count.
func Distinct(tokens []string) int {
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}
	return len(seen)
}
