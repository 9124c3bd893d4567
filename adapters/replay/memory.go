// Package replay provides the stores that make verified tokens
// single-use.
package replay

import (
	"context"
	"sync"
	"time"
)

// Memory is the in-process replay guard: a fingerprint set that is
// cleared wholesale on a timer matching the challenge expiry. A token
// straddling a clear boundary could in principle be re-accepted, but by
// then its challenge has expired anyway. Does not survive restarts and
// does not scale past one instance; use Redis for that.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemory creates the guard and starts the background clear loop,
// which stops when ctx is cancelled.
func NewMemory(ctx context.Context, window time.Duration) *Memory {
	m := &Memory{seen: make(map[string]struct{})}
	go m.clearLoop(ctx, window)
	return m
}

// Remember is an atomic insert-if-absent: the lookup and the insert
// share one critical section so concurrent duplicates admit exactly one.
func (m *Memory) Remember(_ context.Context, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[fingerprint]; exists {
		return false, nil
	}
	m.seen[fingerprint] = struct{}{}
	return true, nil
}

func (m *Memory) clearLoop(ctx context.Context, window time.Duration) {
	t := time.NewTicker(window)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.mu.Lock()
			m.seen = make(map[string]struct{})
			m.mu.Unlock()
		}
	}
}
