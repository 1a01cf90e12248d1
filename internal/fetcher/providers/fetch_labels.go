package providers

import (
	"context"

	"changelogcheck/internal/data"
	"changelogcheck/internal/fetcher"

	"github.com/google/go-github/v81/github"
)

type labelsFetcher struct{}

func (l *labelsFetcher) Key() data.DependencyKey { return data.DepPullRequestLabels }

func (l *labelsFetcher) Fetch(ctx context.Context, ref data.PullRequestRef, _ map[string]string, f *fetcher.Fetcher) (any, error) {
	client, err := f.GitHub()
	if err != nil {
		return nil, err
	}

	names := []string{}
	opts := &github.ListOptions{PerPage: 100}
	for {
		if err := f.Budget().Acquire(ctx); err != nil {
			return nil, err
		}
		labels, resp, err := client.Client.Issues.ListLabelsByIssue(ctx, ref.Owner, ref.Name, ref.Number, opts)
		if resp != nil {
			f.Budget().UpdateFromResponse(resp.Response)
		}
		if err != nil {
			return nil, err
		}
		for _, lbl := range labels {
			names = append(names, lbl.GetName())
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}

func init() {
	fetcher.RegisterDataFetcher(&labelsFetcher{})
}
