package providers

import (
	"context"

	"changelogcheck/internal/data"
	"changelogcheck/internal/data/models"
	"changelogcheck/internal/fetcher"

	"github.com/google/go-github/v81/github"
)

// maxListedFiles is the most files the pull request files endpoint returns.
const maxListedFiles = 3000

type filesFetcher struct{}

func (p *filesFetcher) Key() data.DependencyKey { return data.DepPullRequestFiles }

func (p *filesFetcher) Fetch(ctx context.Context, ref data.PullRequestRef, _ map[string]string, f *fetcher.Fetcher) (any, error) {
	client, err := f.GitHub()
	if err != nil {
		return nil, err
	}

	out := &models.ChangedFiles{Source: "api", Files: []models.ChangedFile{}}
	opts := &github.ListOptions{PerPage: 100}
	for {
		if err := f.Budget().Acquire(ctx); err != nil {
			return nil, err
		}
		files, resp, err := client.Client.PullRequests.ListFiles(ctx, ref.Owner, ref.Name, ref.Number, opts)
		if resp != nil {
			f.Budget().UpdateFromResponse(resp.Response)
		}
		if err != nil {
			return nil, err
		}
		for _, cf := range files {
			out.Files = append(out.Files, models.ChangedFile{
				Path:         cf.GetFilename(),
				PreviousPath: cf.GetPreviousFilename(),
				Status:       cf.GetStatus(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	out.Truncated = len(out.Files) >= maxListedFiles
	return out, nil
}

func init() {
	fetcher.RegisterDataFetcher(&filesFetcher{})
}
