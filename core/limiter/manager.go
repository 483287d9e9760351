package limiter

import (
	"sync"
	"sync/atomic"
)

// Mode selects how a Manager hands out limiters.
type Mode int

const (
	// Shared returns one process-wide limiter resized lazily on cap change.
	Shared Mode = iota
	// Isolated builds a fresh limiter per refresh.
	Isolated
)

// Manager hands out limiters sized from a capacity source that may change
// at runtime (for example after a config reload).
type Manager struct {
	mode     Mode
	capacity func() int

	mu       sync.Mutex
	lastSeen atomic.Int64
	shared   *Limiter
}

// NewManager creates a manager. capacity is consulted on every Get.
func NewManager(mode Mode, capacity func() int) *Manager {
	initial := clamp(capacity())
	m := &Manager{
		mode:     mode,
		capacity: capacity,
		shared:   New(initial),
	}
	m.lastSeen.Store(int64(initial))
	return m
}

// Get returns the limiter to use for one refresh.
func (m *Manager) Get() *Limiter {
	want := clamp(m.capacity())

	if m.mode == Isolated {
		return New(want)
	}

	if int64(want) == m.lastSeen.Load() {
		return m.shared
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if int64(want) != m.lastSeen.Load() {
		m.shared.Reconfigure(want)
		m.lastSeen.Store(int64(want))
	}
	return m.shared
}

// Mode reports the manager's mode.
func (m *Manager) Mode() Mode {
	return m.mode
}
