// Package dupes flags records whose titles look like copies of one another, such as "Compendium.pdf" and "compendium_2023.pdf".
package dupes

import (
	"regexp"
	"sort"
	"strings"

	"github.com/msbooks/bookshelf/catalog"
	"golang.org/x/exp/maps"
)

var (
	knownExtension = regexp.MustCompile(`\.(pdf|epub|mobi|azw3|djvu|txt|rtf|doc|docx|zip|rar|7z)$`)
	separatorRuns  = regexp.MustCompile(`[_.\-]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// NormalizeTitle lowercases 'title', strips one known file extension, and turns separators into single spaces
func NormalizeTitle(title string) string {
	title = strings.ToLower(title)
	title = knownExtension.ReplaceAllString(title, "")
	title = separatorRuns.ReplaceAllString(title, " ")
	title = whitespaceRuns.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// Set is a set of record IDs
type Set map[int]struct{}

// Has returns true if 'id' is in the set
func (s Set) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the set's IDs in ascending order
func (s Set) IDs() []int {
	ids := maps.Keys(s)
	sort.Ints(ids)
	return ids
}

// Detect flags every pair (a in view, b in global) with different IDs where b's normalized title contains a's.
// Both IDs of a pair are flagged. Records with an empty normalized title never match.
func Detect(view, global []catalog.Record) Set {
	flagged := make(Set)
	globalTitles := make([]string, len(global))
	for i, b := range global {
		globalTitles[i] = NormalizeTitle(b.Title)
	}

	for _, a := range view {
		aTitle := NormalizeTitle(a.Title)
		if aTitle == "" {
			continue
		}
		for i, b := range global {
			if a.ID == b.ID || globalTitles[i] == "" {
				continue
			}
			if strings.Contains(globalTitles[i], aTitle) {
				flagged[a.ID] = struct{}{}
				flagged[b.ID] = struct{}{}
			}
		}
	}
	return flagged
}
