// Package tokenize holds the single tokenization rule shared by the
// lexical index and the query expander. Documents and queries must agree
// on it, otherwise "London?" in a message never matches "london" in a
// query.
package tokenize

import (
	"strings"
	"unicode"
)

// Split lowercases the text and splits on any non-alphanumeric rune.
func Split(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
