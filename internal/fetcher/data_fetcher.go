package fetcher

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"changelogcheck/internal/data"
)

// DataFetcher retrieves one kind of pull-request data. Providers register
// themselves from init() in the providers package, so binaries must import
// it for side effects.
type DataFetcher interface {
	Key() data.DependencyKey
	Fetch(ctx context.Context, ref data.PullRequestRef, params map[string]string, f *Fetcher) (any, error)
}

type registry struct {
	mu       sync.RWMutex
	fetchers map[data.DependencyKey]DataFetcher
}

var providers = &registry{fetchers: map[data.DependencyKey]DataFetcher{}}

// RegisterDataFetcher panics on a nil fetcher, an empty key or a key that
// is already taken; all three are programming errors caught at init.
func RegisterDataFetcher(df DataFetcher) {
	if df == nil {
		panic("data fetcher is nil")
	}
	k := df.Key()
	if k == "" {
		panic("data fetcher key is empty")
	}

	providers.mu.Lock()
	defer providers.mu.Unlock()
	if _, taken := providers.fetchers[k]; taken {
		panic(fmt.Sprintf("data fetcher %s already registered", k))
	}
	providers.fetchers[k] = df
}

func ResolveDataFetcher(key data.DependencyKey) (DataFetcher, bool) {
	providers.mu.RLock()
	defer providers.mu.RUnlock()
	df, ok := providers.fetchers[key]
	return df, ok
}

// ListDataFetchers returns every registered provider ordered by key.
func ListDataFetchers() []DataFetcher {
	providers.mu.RLock()
	all := make([]DataFetcher, 0, len(providers.fetchers))
	for _, df := range providers.fetchers {
		all = append(all, df)
	}
	providers.mu.RUnlock()

	slices.SortFunc(all, func(a, b DataFetcher) int {
		return cmp.Compare(a.Key(), b.Key())
	})
	return all
}
