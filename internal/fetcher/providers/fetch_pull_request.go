package providers

import (
	"context"

	"changelogcheck/internal/data"
	"changelogcheck/internal/fetcher"

	"github.com/google/go-github/v81/github"
)

type pullRequestFetcher struct{}

func (p *pullRequestFetcher) Key() data.DependencyKey { return data.DepPullRequest }

func (p *pullRequestFetcher) Fetch(ctx context.Context, ref data.PullRequestRef, _ map[string]string, f *fetcher.Fetcher) (any, error) {
	client, err := f.GitHub()
	if err != nil {
		return nil, err
	}
	if err := f.Budget().Acquire(ctx); err != nil {
		return nil, err
	}

	pr, resp, err := client.Client.PullRequests.Get(ctx, ref.Owner, ref.Name, ref.Number)
	if resp != nil {
		f.Budget().UpdateFromResponse(resp.Response)
	}
	if err != nil {
		return nil, err
	}
	return pr, nil
}

// resolveSHAs returns base and head SHAs from ref, falling back to the pull
// request object.
func resolveSHAs(ctx context.Context, ref data.PullRequestRef, f *fetcher.Fetcher) (base, head string, err error) {
	if ref.BaseSHA != "" && ref.HeadSHA != "" {
		return ref.BaseSHA, ref.HeadSHA, nil
	}
	val, err := f.Fetch(ctx, data.PullRequestRef{Owner: ref.Owner, Name: ref.Name, Number: ref.Number}, data.DepPullRequest, nil)
	if err != nil {
		return "", "", err
	}
	pr, ok := val.(*github.PullRequest)
	if !ok {
		return "", "", unexpectedType(val, data.DepPullRequest)
	}
	base, head = ref.BaseSHA, ref.HeadSHA
	if base == "" {
		base = pr.GetBase().GetSHA()
	}
	if head == "" {
		head = pr.GetHead().GetSHA()
	}
	return base, head, nil
}

func init() {
	fetcher.RegisterDataFetcher(&pullRequestFetcher{})
}
