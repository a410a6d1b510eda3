// Package storage opens the configured catalog backend
package storage

import (
	"os"
	"path/filepath"

	"github.com/msbooks/bookshelf/catalog"
	"github.com/msbooks/bookshelf/config"
	"github.com/msbooks/bookshelf/plaindb"
	"github.com/msbooks/bookshelf/sqldb"
	"github.com/msbooks/bookshelf/vcs"
	"github.com/pkg/errors"
)

// Open returns the store selected by conf.Backend. The repository is nil unless the folder backend is version controlled.
func Open(conf config.Config, clock catalog.Clock) (catalog.Store, vcs.Repository, error) {
	switch conf.Backend {
	case config.FolderBackend:
		return OpenFolder(conf.DataDir, conf.VersionControl, clock)
	case config.SQLiteBackend:
		store, err := OpenSQLite(conf.DatabasePath(), clock)
		return store, nil, err
	default:
		return nil, nil, errors.Errorf("Unknown backend %q", conf.Backend)
	}
}

// OpenFolder opens the JSON bucket store in 'dataDir', optionally committing every save to git
func OpenFolder(dataDir string, versionControl bool, clock catalog.Clock) (*catalog.FileStore, vcs.Repository, error) {
	var repo vcs.Repository
	var opts []plaindb.DBOpt
	if versionControl {
		opts = append(opts, plaindb.VersionControl(&repo))
	}
	db, err := plaindb.Open(dataDir, opts...)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Error opening data folder %q", dataDir)
	}
	store, err := catalog.NewFileStore(db, clock)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, repo, nil
}

// OpenSQLite opens the SQL store at 'path'
func OpenSQLite(path string, clock catalog.Clock) (*sqldb.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	store, err := sqldb.Open(path, clock)
	return store, errors.Wrapf(err, "Error opening database %q", path)
}
