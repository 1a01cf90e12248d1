// Package gitdiff computes pull-request changed paths from a local checkout
// with go-git, without calling the GitHub API. The diff is taken between the
// merge base of base and head, and head, which is what GitHub shows on the
// "Files changed" tab.
package gitdiff

import (
	"context"
	"errors"
	"fmt"

	"changelogcheck/internal/data/models"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// ErrRevisionNotFound is returned when base or head is missing locally,
// typically because the checkout is shallow.
var ErrRevisionNotFound = errors.New("revision not found in local repository (check out with fetch-depth: 0)")

// ChangedFiles opens the repository containing dir and diffs base..head.
func ChangedFiles(ctx context.Context, dir, base, head string) ([]models.ChangedFile, error) {
	repo, err := Open(dir)
	if err != nil {
		return nil, err
	}
	return Diff(ctx, repo, base, head)
}

// Open finds the repository at or above dir.
func Open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", dir, err)
	}
	return repo, nil
}

// Diff lists files changed on head since its merge base with base. base and
// head may be SHAs or any revision go-git can resolve (e.g. origin/main).
func Diff(ctx context.Context, repo *git.Repository, base, head string) ([]models.ChangedFile, error) {
	baseCommit, err := resolveCommit(repo, base)
	if err != nil {
		return nil, err
	}
	headCommit, err := resolveCommit(repo, head)
	if err != nil {
		return nil, err
	}

	from := baseCommit
	bases, err := baseCommit.MergeBase(headCommit)
	if err != nil {
		return nil, fmt.Errorf("computing merge base of %s and %s: %w", base, head, err)
	}
	if len(bases) > 0 {
		from = bases[0]
	}

	fromTree, err := from.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", from.Hash, err)
	}
	toTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", headCommit.Hash, err)
	}

	changes, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", from.Hash, headCommit.Hash, err)
	}

	files := make([]models.ChangedFile, 0, len(changes))
	for _, ch := range changes {
		f, err := toChangedFile(ch)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func resolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rev, ErrRevisionNotFound)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rev, ErrRevisionNotFound)
	}
	return commit, nil
}

func toChangedFile(ch *object.Change) (models.ChangedFile, error) {
	action, err := ch.Action()
	if err != nil {
		return models.ChangedFile{}, fmt.Errorf("classifying change: %w", err)
	}
	switch action {
	case merkletrie.Insert:
		return models.ChangedFile{Path: ch.To.Name, Status: models.FileAdded}, nil
	case merkletrie.Delete:
		return models.ChangedFile{Path: ch.From.Name, Status: models.FileRemoved}, nil
	default:
		if ch.From.Name != ch.To.Name {
			return models.ChangedFile{Path: ch.To.Name, PreviousPath: ch.From.Name, Status: models.FileRenamed}, nil
		}
		return models.ChangedFile{Path: ch.To.Name, Status: models.FileModified}, nil
	}
}
