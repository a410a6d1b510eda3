package transfer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []catalog.Record{
		{ID: 1, Title: "Anatomy", Notes: "atlas, 3rd ed", FileURL: "/a.pdf", DateAdded: "2024-01-01 10:00:00"},
		{ID: 2, Title: `The "Heart"`, Notes: "line\nbreak"},
	})
	require.NoError(t, err)
	assert.Equal(t, `id,title,notes,file_url,date
1,Anatomy,"atlas, 3rd ed",/a.pdf,2024-01-01 10:00:00
2,"The ""Heart""","line
break",,
`, buf.String())
}

func TestReadCSV(t *testing.T) {
	for _, tc := range []struct {
		description string
		input       string
		expected    []catalog.Record
		expectErr   bool
	}{
		{
			description: "empty",
			input:       "",
			expected:    []catalog.Record{},
		},
		{
			description: "round trip columns",
			input:       "id,title,notes,file_url,date\n4,Anatomy,atlas,/a.pdf,2024-01-01 10:00:00\n",
			expected: []catalog.Record{
				{ID: 4, Title: "Anatomy", Notes: "atlas", FileURL: "/a.pdf", DateAdded: "2024-01-01 10:00:00"},
			},
		},
		{
			description: "reordered mixed case headers",
			input:       "Title , NOTES,Date_Added\r\n Physiology ,guyton,2024-02-02 00:00:00\r\n",
			expected: []catalog.Record{
				{ID: 1, Title: "Physiology", Notes: "guyton", DateAdded: "2024-02-02 00:00:00"},
			},
		},
		{
			description: "blank rows and untitled rows skipped",
			input:       "id,title\n,\n7,\nx,Histology\n",
			expected: []catalog.Record{
				{ID: 2, Title: "Histology"},
			},
		},
		{
			description: "short rows",
			input:       "title,notes,file_url\nOnly title\n",
			expected: []catalog.Record{
				{ID: 1, Title: "Only title"},
			},
		},
		{
			description: "bad quoting",
			input:       "title\nab\"c\n",
			expectErr:   true,
		},
	} {
		t.Run(tc.description, func(t *testing.T) {
			records, err := ReadCSV(strings.NewReader(tc.input))
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, records)
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	records := []catalog.Record{
		{ID: 10, Title: "Cardiología, Pediátrica", Notes: `"quoted"`, FileURL: "C:\\books\\c.pdf", DateAdded: "2024-01-01 10:00:00"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	read, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, read)
}
