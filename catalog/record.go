// Package catalog holds the book record model and the rules every store enforces at its insert and update boundaries.
package catalog

import (
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// DateFormat is the layout of Record.DateAdded
	DateFormat = "2006-01-02 15:04:05"
	// DefaultLocation is the time zone new records are stamped in
	DefaultLocation = "America/Lima"
	// UntitledTitle replaces titles blanked out during an edit or import
	UntitledTitle = "Untitled"
)

// Record is a single catalog entry
type Record struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	FileURL   string `json:"file_url"`
	DateAdded string `json:"date_added"`
}

// Patch is a partial edit of a record. Nil fields are left unchanged. ID and DateAdded are never editable.
type Patch struct {
	Title   *string `json:"title,omitempty"`
	Notes   *string `json:"notes,omitempty"`
	FileURL *string `json:"file_url,omitempty"`
}

// Empty returns true if the patch would not change anything
func (p Patch) Empty() bool {
	return p.Title == nil && p.Notes == nil && p.FileURL == nil
}

// Apply returns a copy of r with the patch's fields trimmed and applied
func (p Patch) Apply(r Record) Record {
	if p.Title != nil {
		r.Title = strings.TrimSpace(*p.Title)
		if r.Title == "" {
			r.Title = UntitledTitle
		}
	}
	if p.Notes != nil {
		r.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.FileURL != nil {
		r.FileURL = strings.TrimSpace(*p.FileURL)
	}
	return r
}

// New builds a record ready for Store.Add, trimming each field
func New(title, notes, fileURL string) Record {
	return Record{
		Title:   strings.TrimSpace(title),
		Notes:   strings.TrimSpace(notes),
		FileURL: strings.TrimSpace(fileURL),
	}
}

// Store reads and writes catalog records. Implementations enforce Validate on Add and Update.
type Store interface {
	io.Closer
	// All returns every record ordered by ID
	All() ([]Record, error)
	// Get returns the record with 'id'
	Get(id int) (record Record, found bool, err error)
	// Add assigns a new ID and DateAdded to 'record' and inserts it
	Add(record Record) (Record, error)
	// Update applies 'patch' to the record with 'id'
	Update(id int, patch Patch) (Record, error)
	// Remove deletes the records with 'ids'. Unknown IDs are ignored.
	Remove(ids ...int) error
	// Replace swaps the whole catalog for 'records', keeping their IDs and dates. Records must already satisfy Prepare.
	Replace(records []Record) error
}

// Clock returns the current time for stamping new records
type Clock func() time.Time

// NewClock returns a Clock in the named location. Lima falls back to a fixed UTC-5 zone when tzdata is unavailable.
func NewClock(location string) (Clock, error) {
	if location == "" {
		location = DefaultLocation
	}
	loc, err := time.LoadLocation(location)
	if err != nil {
		if location != DefaultLocation {
			return nil, errors.Wrapf(err, "Invalid time zone %q", location)
		}
		loc = time.FixedZone("-05", -5*60*60)
	}
	return func() time.Time {
		return time.Now().In(loc)
	}, nil
}

// Stamp formats the clock's current time as a DateAdded value
func (c Clock) Stamp() string {
	return c().Format(DateFormat)
}
