// Package vcs commits data files to a local git repository so every change to the catalog can be reviewed or reverted.
package vcs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/object"
)

// Repository is a Git repository with thread-safe file operations
type Repository interface {
	// CommitFiles commits with 'message' for files specified by 'paths'. 'prepFiles' is given exclusive access to files during execution
	CommitFiles(prepFiles func() error, message string, paths ...string) error
}

// Open ensures a Git repo exists at 'path' and returns its Repository
func Open(path string) (Repository, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: false,
	})
	if err == git.ErrRepositoryNotExists {
		repo, err = initRepo(path)
	}
	if err != nil {
		return nil, err
	}
	return &syncRepo{repo: repo}, nil
}

type syncRepo struct {
	repo *git.Repository
	mu   sync.Mutex
}

func initRepo(path string) (*git.Repository, error) {
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, err
	}
	tree, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	status, err := tree.Status()
	if err != nil {
		return nil, err
	}

	added := false
	for file, stat := range status {
		// add any untracked files, excluding hidden and tmp files
		if stat.Worktree == git.Untracked && !strings.HasPrefix(file, ".") && !strings.HasSuffix(file, ".tmp") {
			if _, err := tree.Add(file); err != nil {
				return nil, err
			}
			added = true
		}
	}
	if added {
		if _, err := tree.Commit("Initial commit", &git.CommitOptions{Author: author()}); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func author() *object.Signature {
	return &object.Signature{
		Name: "Bookshelf",
		When: time.Now(),
	}
}

// CommitFiles resets the repo index, then adds & commits the files at 'paths' with the 'message'.
// Gives exclusive lock to 'prepFiles' execution. Skips the commit if none of the files changed.
func (s *syncRepo) CommitFiles(prepFiles func() error, message string, paths ...string) error {
	if len(paths) == 0 {
		return errors.New("No files to commit")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := prepFiles(); err != nil {
		return err
	}
	tree, err := s.repo.Worktree()
	if err != nil {
		return err
	}

	_, headErr := s.repo.Head()
	switch headErr {
	case nil:
		// unstage anything left over from a failed commit
		if err := tree.Reset(&git.ResetOptions{}); err != nil {
			return err
		}
	case plumbing.ErrReferenceNotFound:
	default:
		return headErr
	}

	rootPath, err := filepath.Abs(tree.Filesystem.Root())
	if err != nil {
		return err
	}
	relPaths := make([]string, 0, len(paths))
	for _, path := range paths {
		relPath, err := relativeTo(rootPath, path)
		if err != nil {
			return err
		}
		if _, err := tree.Add(relPath); err != nil {
			return errors.Wrapf(err, "Failed to add %s to the git index", relPath)
		}
		relPaths = append(relPaths, relPath)
	}

	repoStatus, err := tree.Status()
	if err != nil {
		return err
	}
	shouldCommit := false
	for _, path := range relPaths {
		status, ok := repoStatus[path]
		if ok && status.Staging != git.Unmodified {
			shouldCommit = true
			break
		}
	}
	if !shouldCommit {
		return nil
	}

	_, err = tree.Commit(message, &git.CommitOptions{
		Author: author(),
	})
	return err
}

func relativeTo(root, path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	relPath, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(relPath, "..") {
		return "", errors.Errorf("Path %q is outside the repository", path)
	}
	return filepath.ToSlash(relPath), nil
}
