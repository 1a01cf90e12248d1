package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RequestBudget gates API calls on GitHub's rate-limit headers. It starts
// optimistic and learns the real budget from the first response.
type RequestBudget struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	cooldown  time.Time
	probed    bool
	now       func() time.Time
	notifyCh  chan struct{}
}

func NewRequestBudget() *RequestBudget {
	return &RequestBudget{
		remaining: 5000,
		reset:     time.Now().Add(time.Hour),
		now:       time.Now,
		notifyCh:  make(chan struct{}),
	}
}

func (b *RequestBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Acquire blocks until one request may be sent or ctx is done.
func (b *RequestBudget) Acquire(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("Acquire: nil context")
	}
	if b == nil || b.now == nil || b.notifyCh == nil {
		return fmt.Errorf("Acquire: uninitialized RequestBudget (use NewRequestBudget)")
	}

	for {
		wait, ch, ok := b.tryAcquire()
		if ok {
			return nil
		}
		if err := sleep(ctx, wait, ch); err != nil {
			return err
		}
	}
}

// tryAcquire takes one unit of budget or reports how long to wait. A
// negative wait means "until UpdateFromResponse signals".
func (b *RequestBudget) tryAcquire() (time.Duration, <-chan struct{}, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()

	if now.Before(b.cooldown) {
		return b.cooldown.Sub(now), b.notifyCh, false
	}
	if b.remaining > 0 {
		b.remaining--
		return 0, nil, true
	}
	if now.Before(b.reset) {
		return b.reset.Sub(now), b.notifyCh, false
	}
	// Reset has passed without a fresh budget observed: allow one probe
	// request and then wait for its response headers.
	if !b.probed {
		b.probed = true
		return 0, nil, true
	}
	return -1, b.notifyCh, false
}

func sleep(ctx context.Context, wait time.Duration, ch <-chan struct{}) error {
	if wait < 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			return nil
		}
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	case <-timer.C:
		return nil
	}
}

func (b *RequestBudget) signalLocked() {
	close(b.notifyCh)
	b.notifyCh = make(chan struct{})
}

// UpdateFromResponse records X-RateLimit-Remaining, X-RateLimit-Reset and
// Retry-After from a GitHub response and wakes any waiters on change.
func (b *RequestBudget) UpdateFromResponse(resp *http.Response) {
	if resp == nil || b == nil || b.now == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false

	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
		until := b.now().Add(time.Duration(seconds) * time.Second)
		if until.After(b.cooldown) {
			b.cooldown = until
			changed = true
		}
	}

	if val, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining")); err == nil && val >= 0 {
		if b.remaining != val {
			b.remaining = val
			changed = true
		}
	}

	if val, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil && val > 0 {
		newReset := time.Unix(val, 0)
		if !b.reset.Equal(newReset) {
			b.reset = newReset
			changed = true
		}
	}

	if changed {
		b.probed = false
		if b.notifyCh != nil {
			b.signalLocked()
		}
	}
}
