package fetcher

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo remembers successful fetches for one run and collapses concurrent
// calls for the same flight key into one. Errors are never remembered, so a
// failed fetch is retried by the next caller.
type memo struct {
	flights singleflight.Group
	results sync.Map
}

// do returns the remembered value for key or runs fn. shared reports
// whether the value came from the cache or another in-flight call.
func (m *memo) do(key string, fn func() (any, error)) (val any, shared bool, err error) {
	if v, ok := m.results.Load(key); ok {
		return v, true, nil
	}
	v, err, shared := m.flights.Do(key, func() (any, error) {
		v, err := fn()
		if err == nil {
			m.results.Store(key, v)
		}
		return v, err
	})
	return v, shared, err
}
