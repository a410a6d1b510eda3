package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlight(t *testing.T) {
	for _, tc := range []struct {
		description string
		text        string
		tokens      []string
		expected    string
	}{
		{
			description: "no tokens escapes everything",
			text:        `<b>"Tom & Jerry's"</b>`,
			expected:    "&lt;b&gt;&quot;Tom &amp; Jerry&#39;s&quot;&lt;/b&gt;",
		},
		{
			description: "earliest token wins over longer",
			text:        "category",
			tokens:      []string{"cat", "category"},
			expected:    "<mark>cat</mark>egory",
		},
		{
			description: "case and accents preserved",
			text:        "Cardiología Pediátrica",
			tokens:      []string{"cardiologia", "pediatrica"},
			expected:    "<mark>Cardiología</mark> <mark>Pediátrica</mark>",
		},
		{
			description: "repeated matches",
			text:        "heart to heart",
			tokens:      []string{"heart"},
			expected:    "<mark>heart</mark> to <mark>heart</mark>",
		},
		{
			description: "escapes outside marks",
			text:        "a<heart>",
			tokens:      []string{"heart"},
			expected:    "a&lt;<mark>heart</mark>&gt;",
		},
		{
			description: "token longer than text",
			text:        "he",
			tokens:      []string{"heart"},
			expected:    "he",
		},
	} {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, Highlight(tc.text, tc.tokens))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "médi…", Truncate("médico", 4))
	assert.Equal(t, "any", Truncate("any", 0))
}
