package search

import (
	"strings"
	"unicode/utf8"

	"github.com/msbooks/bookshelf/normalize"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape escapes text for use in HTML
func Escape(text string) string {
	return htmlEscaper.Replace(text)
}

// Highlight escapes 'text' and wraps matches of the normalized 'tokens' in <mark> tags.
// At each position the first token in list order that matches wins, even if a later token is longer.
func Highlight(text string, tokens []string) string {
	if len(tokens) == 0 {
		return Escape(text)
	}
	runes := []rune(text)
	var b strings.Builder
	for i := 0; i < len(runes); {
		if width := matchAt(runes, i, tokens); width > 0 {
			b.WriteString("<mark>")
			b.WriteString(Escape(string(runes[i : i+width])))
			b.WriteString("</mark>")
			i += width
			continue
		}
		b.WriteString(Escape(string(runes[i])))
		i++
	}
	return b.String()
}

// matchAt returns the rune width of the first token matching 'runes' at index 'i', or 0 if none match
func matchAt(runes []rune, i int, tokens []string) int {
	for _, token := range tokens {
		width := utf8.RuneCountInString(token)
		if width == 0 || i+width > len(runes) {
			continue
		}
		if normalize.String(string(runes[i:i+width])) == token {
			return width
		}
	}
	return 0
}

// Truncate shortens text to at most 'max' runes, appending an ellipsis when cut
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "…"
}
