package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"changelogcheck/internal/data"
	gh "changelogcheck/internal/github"
	"changelogcheck/internal/policy"
)

// ErrNoClient is returned by providers that need the GitHub API when the
// fetcher was built without a client (e.g. git-only runs without a token).
var ErrNoClient = errors.New("GitHub API client not configured (set GITHUB_TOKEN or run 'gh auth login')")

// Fetcher retrieves pull-request data lazily. Each dependency is fetched at
// most once per run; concurrent identical requests share one call.
type Fetcher struct {
	client *gh.Client
	budget *RequestBudget
	memo   memo
}

type fetchChainKey struct{}

func NewFetcher(client *gh.Client, budget *RequestBudget) *Fetcher {
	if budget == nil {
		budget = NewRequestBudget()
	}
	return &Fetcher{
		client: client,
		budget: budget,
	}
}

func (f *Fetcher) Budget() *RequestBudget {
	return f.budget
}

// GitHub returns the API client or ErrNoClient.
func (f *Fetcher) GitHub() (*gh.Client, error) {
	if f.client == nil || f.client.Client == nil {
		return nil, ErrNoClient
	}
	return f.client, nil
}

// Fetch resolves key for ref. Provider failures are returned as
// policy.InfrastructureError so callers never mistake them for a violation.
func (f *Fetcher) Fetch(ctx context.Context, ref data.PullRequestRef, key data.DependencyKey, params map[string]string) (any, error) {
	if ctx == nil {
		return nil, fmt.Errorf("Fetch: nil context")
	}
	if f == nil {
		return nil, fmt.Errorf("Fetch: nil Fetcher")
	}
	if f.budget == nil {
		return nil, fmt.Errorf("Fetch: uninitialized Fetcher (use NewFetcher)")
	}
	if key == "" {
		return nil, fmt.Errorf("Fetch: empty dependency key")
	}
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	fetchImpl, ok := ResolveDataFetcher(key)
	if !ok {
		return nil, fmt.Errorf("unsupported dependency key: %s", key)
	}

	flightKey := makeFlightKey(ref, key, params)

	ctx, err := withFetchChain(ctx, flightKey)
	if err != nil {
		return nil, err
	}

	val, _, err := f.memo.do(flightKey, func() (any, error) {
		return fetchImpl.Fetch(ctx, ref, params, f)
	})
	if err != nil {
		return nil, policy.Infrastructure(fmt.Sprintf("fetch %s for %s", key, ref), err)
	}
	return val, nil
}

func withFetchChain(ctx context.Context, flightKey string) (context.Context, error) {
	chain := getFetchChain(ctx)
	for _, existing := range chain {
		if existing == flightKey {
			return nil, fmt.Errorf("Fetch: dependency cycle detected: %s -> %s", strings.Join(chain, " -> "), flightKey)
		}
	}

	updated := make([]string, 0, len(chain)+1)
	updated = append(updated, chain...)
	updated = append(updated, flightKey)
	return context.WithValue(ctx, fetchChainKey{}, updated), nil
}

func getFetchChain(ctx context.Context) []string {
	chain, _ := ctx.Value(fetchChainKey{}).([]string)
	return chain
}

// makeFlightKey is deterministic: owner/name are case-insensitive on GitHub
// and params are sorted.
func makeFlightKey(ref data.PullRequestRef, key data.DependencyKey, params map[string]string) string {
	prefix := strings.ToLower(ref.String())
	return prefix + ":" + string(key) + ":" + stableParamsKey(params)
}

func stableParamsKey(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}
