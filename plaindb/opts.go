package plaindb

import (
	"github.com/msbooks/bookshelf/vcs"
)

// DBOpt configures the DB built by Open
type DBOpt interface {
	do(*database) error
}

type dbOpt func(*database) error

func (opt dbOpt) do(db *database) error {
	return opt(db)
}

// VersionControl commits every bucket save to a git repository in the DB's directory.
// If setRepo is not nil, it receives the repository for committing other files in the same directory.
func VersionControl(setRepo *vcs.Repository) DBOpt {
	return dbOpt(func(db *database) error {
		repo, err := vcs.Open(db.path)
		if err != nil {
			return err
		}
		db.repo = repo
		if setRepo != nil {
			*setRepo = repo
		}
		return nil
	})
}
