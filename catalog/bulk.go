package catalog

import (
	"regexp"
	"strings"

	sErrors "github.com/msbooks/bookshelf/errors"
	"github.com/pkg/errors"
)

var lineBreaks = regexp.MustCompile(`\r?\n`)

// BulkReport summarizes a bulk add
type BulkReport struct {
	Added      int
	Duplicates int
	Empty      int
	IDs        []int
	Errors     sErrors.Errors `json:",omitempty"`
}

// ParseBulk parses pasted text, one record per line as "title|notes|file_url".
// Lines without a '|' are split on commas instead. Blank lines are skipped.
func ParseBulk(text string) []Record {
	var records []Record
	for _, line := range lineBreaks.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) == 1 {
			parts = strings.Split(line, ",")
		}
		field := func(i int) string {
			if i < len(parts) {
				return parts[i]
			}
			return ""
		}
		records = append(records, New(field(0), field(1), field(2)))
	}
	return records
}

// BulkAdd adds each parsed line to store, counting empty and duplicate titles instead of failing on them
func BulkAdd(store Store, text string) (BulkReport, error) {
	report := BulkReport{IDs: []int{}}
	for lineIndex, record := range ParseBulk(text) {
		if record.Title == "" {
			report.Empty++
			continue
		}
		added, err := store.Add(record)
		switch {
		case err == nil:
			report.Added++
			report.IDs = append(report.IDs, added.ID)
		case IsDuplicate(err):
			report.Duplicates++
		default:
			report.Errors.AddErr(errors.Wrapf(err, "Entry %d", lineIndex+1))
		}
	}
	return report, report.Errors.ErrOrNil()
}
