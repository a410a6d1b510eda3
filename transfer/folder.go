package transfer

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/msbooks/bookshelf/catalog"
)

var ignoredFiles = regexp.MustCompile(`(?i)^(\.|thumbs\.db|desktop\.ini)`)

// ScanFolder lists every file under 'root' as a record, ordered by path with IDs from 1.
// The title is the file name, the notes are its folder without 'trimPrefix', and the file URL is its full path.
// Hidden files, Thumbs.db and desktop.ini are skipped.
func ScanFolder(root, trimPrefix string) ([]catalog.Record, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || ignoredFiles.MatchString(entry.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	records := make([]catalog.Record, 0, len(paths))
	for i, path := range paths {
		records = append(records, catalog.Record{
			ID:      i + 1,
			Title:   filepath.Base(path),
			Notes:   strings.TrimPrefix(filepath.Dir(path), trimPrefix),
			FileURL: path,
		})
	}
	return records, nil
}
