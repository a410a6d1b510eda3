package catalog

import (
	"sort"

	"github.com/pkg/errors"
)

// Order is a table ordering
type Order string

const (
	// DateDesc lists the newest records first. Default.
	DateDesc Order = "date_desc"
	// DateAsc lists the oldest records first
	DateAsc Order = "date_asc"
	// TitleAsc lists records alphabetically
	TitleAsc Order = "title_asc"
	// TitleDesc lists records reverse-alphabetically
	TitleDesc Order = "title_desc"
)

// ParseOrder parses a sort query parameter. An empty string is DateDesc.
func ParseOrder(s string) (Order, error) {
	switch order := Order(s); order {
	case "":
		return DateDesc, nil
	case DateDesc, DateAsc, TitleAsc, TitleDesc:
		return order, nil
	default:
		return "", errors.Errorf("Unknown sort order: %q", s)
	}
}

// Sort returns a sorted copy of records. Date ties fall back to ID in the same direction.
func Sort(records []Record, order Order) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	var less func(a, b Record) bool
	switch order {
	case DateAsc:
		less = func(a, b Record) bool {
			if a.DateAdded != b.DateAdded {
				return a.DateAdded < b.DateAdded
			}
			return a.ID < b.ID
		}
	case TitleAsc:
		less = func(a, b Record) bool { return a.Title < b.Title }
	case TitleDesc:
		less = func(a, b Record) bool { return a.Title > b.Title }
	default:
		less = func(a, b Record) bool {
			if a.DateAdded != b.DateAdded {
				return a.DateAdded > b.DateAdded
			}
			return a.ID > b.ID
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		return less(sorted[a], sorted[b])
	})
	return sorted
}

// Paginate returns the 1-based 'page' of 'limit' records. A limit <= 0 returns every record.
func Paginate(records []Record, page, limit int) []Record {
	if limit <= 0 {
		return records
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(records) {
		return []Record{}
	}
	end := start + limit
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
