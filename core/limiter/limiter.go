package limiter

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds the number of concurrent holders.
// Reconfigure swaps the underlying semaphore; tokens taken from the old one
// keep draining against it, so a resize never blocks in-flight work.
type Limiter struct {
	mu  sync.Mutex
	sem *semaphore.Weighted
	cap int
}

// New creates a limiter with the given capacity (clamped to at least 1).
func New(capacity int) *Limiter {
	capacity = clamp(capacity)
	return &Limiter{sem: semaphore.NewWeighted(int64(capacity)), cap: capacity}
}

// Token is a held unit of capacity.
type Token struct {
	sem  *semaphore.Weighted
	once sync.Once
}

// Release returns the capacity to the semaphore it was acquired from.
// Calling Release more than once is a no-op.
func (t *Token) Release() {
	t.once.Do(func() { t.sem.Release(1) })
}

// Acquire blocks until capacity is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) (*Token, error) {
	l.mu.Lock()
	sem := l.sem
	l.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return &Token{sem: sem}, nil
}

// Reconfigure changes the capacity. New acquisitions use the new capacity
// immediately.
func (l *Limiter) Reconfigure(capacity int) {
	capacity = clamp(capacity)

	l.mu.Lock()
	defer l.mu.Unlock()
	if capacity == l.cap {
		return
	}
	l.sem = semaphore.NewWeighted(int64(capacity))
	l.cap = capacity
}

// Cap returns the current capacity.
func (l *Limiter) Cap() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cap
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
