// Package normalize canonicalizes free text so titles, notes and queries can be compared
// case- and diacritic-insensitively.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var combiningMarks = runes.In(unicode.Mn)

// String lowercases text and strips diacritics. i.e. "Élodie" -> "elodie"
func String(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	// transformers carry internal buffers, so build a fresh chain per call to stay safe for concurrent use
	stripMarks := transform.Chain(norm.NFD, runes.Remove(combiningMarks), norm.NFC)
	result, _, err := transform.String(stripMarks, lower)
	if err != nil {
		return lower
	}
	return result
}

// Tokenize normalizes text, then splits it on every run of non-alphanumeric runes.
// Tokens keep their first-occurrence order and repeated tokens are kept.
func Tokenize(text string) []string {
	return strings.FieldsFunc(String(text), isSeparator)
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
