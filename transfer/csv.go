// Package transfer moves catalog records in and out of the app: CSV and JSON files, folder scans, and autosaved copies of the dataset.
package transfer

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/pkg/errors"
)

var csvHeader = []string{"id", "title", "notes", "file_url", "date"}

// WriteCSV writes records with the header "id,title,notes,file_url,date"
func WriteCSV(w io.Writer, records []catalog.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(int64(r.ID), 10),
			r.Title,
			r.Notes,
			r.FileURL,
			r.DateAdded,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV reads records by header name, ignoring case and column order.
// Blank rows and rows without a title are skipped. A missing or invalid id becomes the row's position among the non-blank rows.
func ReadCSV(r io.Reader) ([]catalog.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "Invalid CSV")
	}
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return []catalog.Record{}, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, exists := columns[name]; !exists {
			columns[name] = i
		}
	}
	if _, ok := columns["date"]; !ok {
		if i, ok := columns["date_added"]; ok {
			columns["date"] = i
		}
	}
	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]catalog.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		position := i + 1
		record := catalog.Record{
			ID:        position,
			Title:     cell(row, "title"),
			Notes:     cell(row, "notes"),
			FileURL:   cell(row, "file_url"),
			DateAdded: cell(row, "date"),
		}
		if id, err := strconv.Atoi(cell(row, "id")); err == nil && id != 0 {
			record.ID = id
		}
		if record.Title != "" {
			records = append(records, record)
		}
	}
	return records, nil
}

func dropBlankRows(rows [][]string) [][]string {
	kept := rows[:0]
	for _, row := range rows {
		for _, value := range row {
			if strings.TrimSpace(value) != "" {
				kept = append(kept, row)
				break
			}
		}
	}
	return kept
}
