package catalog

import (
	"strings"

	"github.com/msbooks/bookshelf/normalize"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyTitle is returned when a record has no title
	ErrEmptyTitle = errors.New("Title is required")
	// ErrDuplicateTitle is returned when another record already has the same normalized title
	ErrDuplicateTitle = errors.New("A record with an identical title already exists")
	// ErrNotFound is returned when no record matches an ID
	ErrNotFound = errors.New("Record not found")
)

// Validate checks 'candidate' against the rest of the catalog. The candidate's own ID is excluded from the uniqueness check.
func Validate(records []Record, candidate Record) error {
	if strings.TrimSpace(candidate.Title) == "" {
		return ErrEmptyTitle
	}
	if TitleExists(records, candidate.Title, candidate.ID) {
		return errors.Wrapf(ErrDuplicateTitle, "Title %q", candidate.Title)
	}
	return nil
}

// TitleExists returns true if a record other than 'excludeID' normalizes to the same title
func TitleExists(records []Record, title string, excludeID int) bool {
	target := normalize.String(title)
	for _, r := range records {
		if r.ID != excludeID && normalize.String(r.Title) == target {
			return true
		}
	}
	return false
}

// IsDuplicate returns true if err was caused by ErrDuplicateTitle
func IsDuplicate(err error) bool {
	return errors.Cause(err) == ErrDuplicateTitle
}

// NextID returns one more than the largest ID in use, or 1 for an empty catalog
func NextID(records []Record) int {
	max := 0
	for _, r := range records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// Prepare readies imported records for Store.Replace: blank titles become UntitledTitle,
// missing or repeated IDs get fresh ones, and records whose normalized title repeats an earlier one are dropped.
func Prepare(records []Record) (kept, dropped []Record) {
	kept = make([]Record, 0, len(records))
	seenTitles := make(map[string]bool, len(records))
	seenIDs := make(map[int]bool, len(records))
	next := NextID(records)
	for _, r := range records {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			r.Title = UntitledTitle
		}
		title := normalize.String(r.Title)
		if seenTitles[title] {
			dropped = append(dropped, r)
			continue
		}
		seenTitles[title] = true
		if r.ID <= 0 || seenIDs[r.ID] {
			r.ID = next
			next++
		}
		seenIDs[r.ID] = true
		kept = append(kept, r)
	}
	return kept, dropped
}
