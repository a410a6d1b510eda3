package transfer

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/pkg/errors"
)

// WriteJSON writes records as an indented JSON array
func WriteJSON(w io.Writer, records []catalog.Record) error {
	if records == nil {
		records = []catalog.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

type jsonRecord struct {
	ID        json.Number `json:"id"`
	Title     string      `json:"title"`
	Notes     string      `json:"notes"`
	FileURL   string      `json:"file_url"`
	DateAdded string      `json:"date_added"`
}

// ReadJSON reads a JSON array of records. Missing titles become "Untitled" and missing ids become the record's position.
func ReadJSON(r io.Reader) ([]catalog.Record, error) {
	var raw []jsonRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "Invalid JSON: expected an array of records")
	}
	records := make([]catalog.Record, 0, len(raw))
	for i, item := range raw {
		record := catalog.Record{
			ID:        i + 1,
			Title:     item.Title,
			Notes:     item.Notes,
			FileURL:   item.FileURL,
			DateAdded: item.DateAdded,
		}
		if id, err := strconv.Atoi(item.ID.String()); err == nil && id != 0 {
			record.ID = id
		}
		if record.Title == "" {
			record.Title = catalog.UntitledTitle
		}
		records = append(records, record)
	}
	return records, nil
}
