// Package search ranks catalog records against a free-text query, filters the table view, and marks matches for display.
package search

import (
	"sort"
	"strings"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/normalize"
)

const (
	titleWeight     = 3
	secondaryWeight = 1
)

// Result is a ranked record
type Result struct {
	catalog.Record
	Score int
}

// fields holds a record's normalized searchable text
type fields struct {
	title   string
	notes   string
	fileURL string
}

func normalizeFields(r catalog.Record) fields {
	return fields{
		title:   normalize.String(r.Title),
		notes:   normalize.String(r.Notes),
		fileURL: normalize.String(r.FileURL),
	}
}

// contains assumes 'field' and 'token' are both normalized
func contains(field, token string) bool {
	return token != "" && strings.Contains(field, token)
}

func (f fields) matches(token string) bool {
	return contains(f.title, token) || contains(f.notes, token) || contains(f.fileURL, token)
}

// score adds the title weight for each token found in the title, and the secondary weight once per token found in notes or file URL
func (f fields) score(tokens []string) int {
	total := 0
	for _, token := range tokens {
		if contains(f.title, token) {
			total += titleWeight
		}
		if contains(f.notes, token) || contains(f.fileURL, token) {
			total += secondaryWeight
		}
	}
	return total
}

// Rank scores every record against 'query', best first. Ties are ordered by title.
// An empty query returns every record with a zero score in its original order.
func Rank(query string, records []catalog.Record) []Result {
	tokens := normalize.Tokenize(query)
	results := make([]Result, 0, len(records))
	if len(tokens) == 0 {
		for _, r := range records {
			results = append(results, Result{Record: r})
		}
		return results
	}

	for _, r := range records {
		if s := normalizeFields(r).score(tokens); s > 0 {
			results = append(results, Result{Record: r, Score: s})
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score // sort scores largest to smallest
		}
		return results[a].Title < results[b].Title
	})
	return results
}

// Suggest returns the top 'limit' results of Rank. A limit <= 0 returns all of them.
func Suggest(query string, records []catalog.Record, limit int) []Result {
	results := Rank(query, records)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Filter keeps the records matching every token of 'query' in any field, preserving their order.
// An empty query returns 'records' as-is.
func Filter(query string, records []catalog.Record) []catalog.Record {
	tokens := normalize.Tokenize(query)
	if len(tokens) == 0 {
		return records
	}
	matched := make([]catalog.Record, 0, len(records))
	for _, r := range records {
		f := normalizeFields(r)
		keep := true
		for _, token := range tokens {
			if !f.matches(token) {
				keep = false
				break
			}
		}
		if keep {
			matched = append(matched, r)
		}
	}
	return matched
}
