package fetcher_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"changelogcheck/internal/data"
	"changelogcheck/internal/fetcher"
	_ "changelogcheck/internal/fetcher/providers"
	gh "changelogcheck/internal/github"
	"changelogcheck/internal/policy"

	"github.com/google/go-github/v81/github"
)

type testCycleFetcher struct {
	key    data.DependencyKey
	target data.DependencyKey
}

func (t *testCycleFetcher) Key() data.DependencyKey { return t.key }

func (t *testCycleFetcher) Fetch(ctx context.Context, ref data.PullRequestRef, _ map[string]string, f *fetcher.Fetcher) (any, error) {
	return f.Fetch(ctx, ref, t.target, nil)
}

type testValueFetcher struct {
	key   data.DependencyKey
	calls *int32
	err   error
}

func (t *testValueFetcher) Key() data.DependencyKey { return t.key }

func (t *testValueFetcher) Fetch(_ context.Context, _ data.PullRequestRef, _ map[string]string, _ *fetcher.Fetcher) (any, error) {
	atomic.AddInt32(t.calls, 1)
	if t.err != nil {
		return nil, t.err
	}
	return "ok", nil
}

const (
	testValueKey data.DependencyKey = "test.value"
	testErrorKey data.DependencyKey = "test.error"
)

var (
	testValueCalls int32
	testErrorCalls int32
	testOnce       sync.Once
)

func ensureTestFetchersRegistered() {
	testOnce.Do(func() {
		fetcher.RegisterDataFetcher(&testValueFetcher{key: testValueKey, calls: &testValueCalls})
		fetcher.RegisterDataFetcher(&testValueFetcher{key: testErrorKey, calls: &testErrorCalls, err: fmt.Errorf("boom")})
	})
}

func newTestClient(t *testing.T, serverURL string) *gh.Client {
	t.Helper()

	client, err := gh.NewClient(context.Background(), "dummy-token")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	baseURL, err := url.Parse(serverURL + "/")
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	client.Client.BaseURL = baseURL
	client.Client.UploadURL = baseURL
	return client
}

var testRef = data.PullRequestRef{Owner: "acme", Name: "widgets", Number: 12}

func TestDataFetcherRegistry_ResolvesKnownKeys(t *testing.T) {
	for _, key := range []data.DependencyKey{
		data.DepPullRequest,
		data.DepPullRequestLabels,
		data.DepPullRequestFiles,
		data.DepPullRequestGitFiles,
	} {
		if _, ok := fetcher.ResolveDataFetcher(key); !ok {
			t.Fatalf("expected data fetcher registered for key %q", key)
		}
	}
}

func TestListDataFetchers_Sorted(t *testing.T) {
	all := fetcher.ListDataFetchers()
	for i := 1; i < len(all); i++ {
		if all[i-1].Key() >= all[i].Key() {
			t.Fatalf("expected sorted keys, got %s before %s", all[i-1].Key(), all[i].Key())
		}
	}
}

func TestFetcher_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/repos/acme/widgets/pulls/12", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":12, "base":{"sha":"b"}, "head":{"sha":"h"}}`)
	})

	budget := fetcher.NewRequestBudget()
	f := fetcher.NewFetcher(newTestClient(t, server.URL), budget)

	val, err := f.Fetch(context.Background(), testRef, data.DepPullRequest, nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	pr, ok := val.(*github.PullRequest)
	if !ok || pr.GetNumber() != 12 {
		t.Fatalf("expected pull request object, got %v", val)
	}

	if rem := budget.Remaining(); rem != 4999 {
		t.Errorf("Expected 4999 remaining, got %d", rem)
	}
}

func TestFetcher_CacheKey_DeterministicParamsOrder(t *testing.T) {
	ensureTestFetchersRegistered()
	atomic.StoreInt32(&testValueCalls, 0)

	f := fetcher.NewFetcher(nil, nil)
	paramsA := map[string]string{"b": "2", "a": "1"}
	paramsB := map[string]string{"a": "1", "b": "2"}

	if _, err := f.Fetch(context.Background(), testRef, testValueKey, paramsA); err != nil {
		t.Fatalf("Fetch paramsA failed: %v", err)
	}
	if _, err := f.Fetch(context.Background(), testRef, testValueKey, paramsB); err != nil {
		t.Fatalf("Fetch paramsB failed: %v", err)
	}
	upper := data.PullRequestRef{Owner: "ACME", Name: "Widgets", Number: 12}
	if _, err := f.Fetch(context.Background(), upper, testValueKey, paramsA); err != nil {
		t.Fatalf("Fetch upper-case ref failed: %v", err)
	}

	if got := atomic.LoadInt32(&testValueCalls); got != 1 {
		t.Fatalf("expected 1 call due to deterministic cache key, got %d", got)
	}
}

func TestFetcher_DedupesConcurrentFetches(t *testing.T) {
	ensureTestFetchersRegistered()
	atomic.StoreInt32(&testValueCalls, 0)

	f := fetcher.NewFetcher(nil, nil)
	ref := data.PullRequestRef{Owner: "acme", Name: "widgets", Number: 99}

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := f.Fetch(context.Background(), ref, testValueKey, nil); err != nil {
				t.Errorf("Fetch failed: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&testValueCalls); got != 1 {
		t.Fatalf("expected 1 fetch call, got %d", got)
	}
}

func TestFetcher_DifferentPullRequestsAreNotShared(t *testing.T) {
	ensureTestFetchersRegistered()
	atomic.StoreInt32(&testValueCalls, 0)

	f := fetcher.NewFetcher(nil, nil)
	for _, n := range []int{1, 2} {
		ref := data.PullRequestRef{Owner: "acme", Name: "widgets", Number: n}
		if _, err := f.Fetch(context.Background(), ref, testValueKey, nil); err != nil {
			t.Fatalf("Fetch #%d failed: %v", n, err)
		}
	}
	if got := atomic.LoadInt32(&testValueCalls); got != 2 {
		t.Fatalf("expected 2 fetch calls, got %d", got)
	}
}

func TestFetcher_ErrorsAreInfrastructureAndNotCached(t *testing.T) {
	ensureTestFetchersRegistered()
	atomic.StoreInt32(&testErrorCalls, 0)

	f := fetcher.NewFetcher(nil, nil)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), testRef, testErrorKey, nil)
		if err == nil {
			t.Fatalf("expected error")
		}
		if !policy.IsInfrastructure(err) {
			t.Fatalf("expected infrastructure error, got %T: %v", err, err)
		}
	}
	if got := atomic.LoadInt32(&testErrorCalls); got != 2 {
		t.Fatalf("expected errors to not be cached, got %d calls", got)
	}
}

func TestFetcher_NoClient(t *testing.T) {
	f := fetcher.NewFetcher(nil, nil)
	_, err := f.Fetch(context.Background(), testRef, data.DepPullRequestLabels, nil)
	if err == nil {
		t.Fatalf("expected error without client")
	}
	if !policy.IsInfrastructure(err) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestFetcher_InvalidInputs(t *testing.T) {
	f := fetcher.NewFetcher(nil, nil)
	var nilCtx context.Context

	if _, err := f.Fetch(nilCtx, testRef, data.DepPullRequest, nil); err == nil {
		t.Fatalf("expected error for nil ctx")
	}
	if _, err := f.Fetch(context.Background(), testRef, "", nil); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := f.Fetch(context.Background(), data.PullRequestRef{Owner: "acme"}, data.DepPullRequest, nil); err == nil {
		t.Fatalf("expected error for incomplete ref")
	}
	if _, err := f.Fetch(context.Background(), testRef, "no.such.key", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	var nilFetcher *fetcher.Fetcher
	if _, err := nilFetcher.Fetch(context.Background(), testRef, data.DepPullRequest, nil); err == nil {
		t.Fatalf("expected error for nil fetcher")
	}
}

func TestFetcher_DependencyCycleDetection_SelfCycle(t *testing.T) {
	const selfKey data.DependencyKey = "test.cycle.self"
	fetcher.RegisterDataFetcher(&testCycleFetcher{key: selfKey, target: selfKey})

	f := fetcher.NewFetcher(nil, nil)
	if _, err := f.Fetch(context.Background(), testRef, selfKey, nil); err == nil {
		t.Fatalf("expected cycle detection error")
	}
}

func TestFetcher_DependencyCycleDetection_MutualCycle(t *testing.T) {
	const aKey data.DependencyKey = "test.cycle.a"
	const bKey data.DependencyKey = "test.cycle.b"
	fetcher.RegisterDataFetcher(&testCycleFetcher{key: aKey, target: bKey})
	fetcher.RegisterDataFetcher(&testCycleFetcher{key: bKey, target: aKey})

	f := fetcher.NewFetcher(nil, nil)
	if _, err := f.Fetch(context.Background(), testRef, aKey, nil); err == nil {
		t.Fatalf("expected cycle detection error")
	}
}
