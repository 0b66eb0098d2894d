// Package memory implements the setup memory: per-pattern outcome statistics,
// recurring-mistake extraction and poor-history warnings.
package memory

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize canonicalizes a raw setup label into its storage key.
// "bull flag", "Bull Flag" and " BULL FLAG " all become "Bull Flag".
// Words are split on single spaces only; punctuation and repeated spaces are kept.
func Normalize(raw string) string {
	words := strings.Split(strings.TrimSpace(raw), " ")
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if size == 0 {
		return word
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
}
