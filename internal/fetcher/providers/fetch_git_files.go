package providers

import (
	"context"
	"fmt"

	"changelogcheck/internal/data"
	"changelogcheck/internal/data/models"
	"changelogcheck/internal/fetcher"
	"changelogcheck/internal/gitdiff"
)

type gitFilesFetcher struct{}

func (g *gitFilesFetcher) Key() data.DependencyKey { return data.DepPullRequestGitFiles }

func (g *gitFilesFetcher) Fetch(ctx context.Context, ref data.PullRequestRef, params map[string]string, f *fetcher.Fetcher) (any, error) {
	base, head, err := resolveSHAs(ctx, ref, f)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base/head commits: %w", err)
	}
	if base == "" || head == "" {
		return nil, fmt.Errorf("failed to resolve base/head commits: empty SHA (base=%q head=%q)", base, head)
	}

	dir := params["dir"]
	if dir == "" {
		dir = "."
	}
	files, err := gitdiff.ChangedFiles(ctx, dir, base, head)
	if err != nil {
		return nil, err
	}
	return &models.ChangedFiles{Source: "git", Files: files}, nil
}

func init() {
	fetcher.RegisterDataFetcher(&gitFilesFetcher{})
}
