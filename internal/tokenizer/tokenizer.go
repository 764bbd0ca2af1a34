// Package tokenizer provides text tokenisation for the lookup store.
// It splits input on non-alphanumeric boundaries under full Unicode
// classification and case-folds every fragment, so that the indexing and
// query sides always agree on what a word is.
package tokenizer

import (
	"unicode"

	"golang.org/x/text/cases"
)

// Tokenize breaks text into normalised tokens. Runs of characters that are
// neither letters nor digits act purely as separators; punctuation, symbols,
// and emoji never appear inside a token. Duplicates are preserved in the
// returned slice.
func Tokenize(text string) []string {
	words := splitWords(text)
	if len(words) == 0 {
		return nil
	}
	// Casers carry internal transform state, so one is created per call
	// rather than shared.
	folder := cases.Fold()
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		tokens = append(tokens, folder.String(word))
	}
	return tokens
}

// Normalize case-folds a single query word with the same rule applied at
// indexing time. Tokenisation is not re-applied here: a query word that
// still contains separator characters can never equal an indexed token and
// simply misses.
func Normalize(word string) string {
	return cases.Fold().String(word)
}

// splitWords splits on maximal runs of non-letter, non-digit runes and drops
// empty fragments.
func splitWords(text string) []string {
	words := make([]string, 0, 8)
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, text[start:])
	}
	return words
}
