package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClock() time.Time {
	return time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC)
}

func TestOpen(t *testing.T) {
	for _, tc := range []struct {
		description string
		backend     config.Backend
		vcs         bool
		expectRepo  bool
		expectErr   string
	}{
		{description: "folder", backend: config.FolderBackend},
		{description: "folder with git", backend: config.FolderBackend, vcs: true, expectRepo: true},
		{description: "sqlite", backend: config.SQLiteBackend},
		{description: "unknown", backend: "csv", expectErr: `Unknown backend "csv"`},
	} {
		t.Run(tc.description, func(t *testing.T) {
			conf := config.Default()
			conf.DataDir = filepath.Join(t.TempDir(), "data")
			conf.Backend = tc.backend
			conf.VersionControl = tc.vcs

			store, repo, err := Open(conf, testClock)
			if tc.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectErr)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.Equal(t, tc.expectRepo, repo != nil)

			added, err := store.Add(catalog.New("Anatomy", "", ""))
			require.NoError(t, err)
			assert.Equal(t, catalog.Record{ID: 1, Title: "Anatomy", DateAdded: "2024-05-01 09:30:00"}, added)
			if tc.backend == config.SQLiteBackend {
				assert.FileExists(t, conf.DatabasePath())
			} else {
				assert.FileExists(t, filepath.Join(conf.DataDir, "books.json"))
			}
		})
	}
}
