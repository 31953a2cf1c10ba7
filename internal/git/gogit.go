package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// GoGitSource reads history in-process, without a git binary.
type GoGitSource struct {
	Dir string
}

func (s GoGitSource) History(ctx context.Context, opts HistoryOptions) ([]CommitInfo, error) {
	repo, err := gogit.PlainOpenWithOptions(s.Dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, ErrNotRepository
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []CommitInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	logOpts := &gogit.LogOptions{Order: gogit.LogOrderCommitterTime}
	if opts.Branch != "" {
		hash, err := repo.ResolveRevision(plumbing.Revision(opts.Branch))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", opts.Branch, err)
		}
		logOpts.From = *hash
	} else {
		logOpts.From = head.Hash()
		logOpts.All = true
	}
	if !opts.Since.IsZero() {
		since := opts.Since
		logOpts.Since = &since
	}

	iter, err := repo.Log(logOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to get git log: %w", err)
	}
	defer iter.Close()

	commits := []CommitInfo{}
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		identity := c.Author.Name + " <" + c.Author.Email + ">"
		if opts.Author != "" && !strings.Contains(identity, opts.Author) {
			return nil
		}

		commits = append(commits, CommitInfo{
			Hash:        c.Hash.String(),
			AuthorName:  c.Author.Name,
			AuthorEmail: c.Author.Email,
			Message:     subject(c.Message),
			CommittedAt: c.Author.When,
		})

		if opts.Count > 0 && len(commits) >= opts.Count {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return commits, nil
}
