package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ClampsCapacity(t *testing.T) {
	assert.Equal(t, 1, New(0).Cap())
	assert.Equal(t, 1, New(-5).Cap())
	assert.Equal(t, 7, New(7).Cap())
}

func TestLimiter_NeverExceedsCap(t *testing.T) {
	l := New(3)
	var current, peak atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := l.Acquire(context.Background())
			require.NoError(t, err)
			defer tok.Release()

			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, int32(0), current.Load())
}

func TestLimiter_AcquireHonoursContext(t *testing.T) {
	l := New(1)
	tok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer tok.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_ReconfigureWhileHeld(t *testing.T) {
	l := New(1)
	old, err := l.Acquire(context.Background())
	require.NoError(t, err)

	l.Reconfigure(2)
	assert.Equal(t, 2, l.Cap())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a, err := l.Acquire(ctx)
	require.NoError(t, err)
	b, err := l.Acquire(ctx)
	require.NoError(t, err)

	old.Release()
	a.Release()
	b.Release()
}

func TestToken_DoubleRelease(t *testing.T) {
	l := New(1)
	tok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	tok.Release()
	assert.NotPanics(t, tok.Release)

	// Capacity is still exactly one.
	tok, err = l.Acquire(context.Background())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.Error(t, err)
	tok.Release()
}

func TestManager_SharedResizesLazily(t *testing.T) {
	var capacity atomic.Int64
	capacity.Store(2)
	m := NewManager(Shared, func() int { return int(capacity.Load()) })

	first := m.Get()
	assert.Same(t, first, m.Get())
	assert.Equal(t, 2, first.Cap())

	capacity.Store(5)
	second := m.Get()
	assert.Same(t, first, second)
	assert.Equal(t, 5, second.Cap())
}

func TestManager_IsolatedBuildsFresh(t *testing.T) {
	m := NewManager(Isolated, func() int { return 4 })

	a := m.Get()
	b := m.Get()
	assert.NotSame(t, a, b)
	assert.Equal(t, 4, a.Cap())
	assert.Equal(t, Isolated, m.Mode())
}

func TestManager_ConcurrentGetDuringResize(t *testing.T) {
	var capacity atomic.Int64
	capacity.Store(1)
	m := NewManager(Shared, func() int { return int(capacity.Load()) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%10 == 0 {
				capacity.Store(int64(i/10 + 1))
			}
			tok, err := m.Get().Acquire(context.Background())
			if assert.NoError(t, err) {
				tok.Release()
			}
		}(i)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock during resize")
	}
}
