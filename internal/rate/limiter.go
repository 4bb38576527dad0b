// Package rate throttles login and signup attempts per client.
package rate

import (
	"sync"
	"time"
)

type Limiter interface {
	// Allow counts one attempt for key and reports whether it fits in the
	// current window, plus the time left until the window resets.
	Allow(key string, limit int, window time.Duration) (bool, time.Duration)
}

// MemoryLimiter keeps fixed windows in process memory. Expired windows are
// dropped every sweepEvery calls.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	calls   int
	now     func() time.Time
}

type fixedWindow struct {
	count   int
	resetAt time.Time
	length  time.Duration
}

const sweepEvery = 1024

func NewMemory() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*fixedWindow), now: time.Now}
}

func (m *MemoryLimiter) Allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.calls++
	if m.calls%sweepEvery == 0 {
		m.sweep(now)
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) || w.length != window {
		w = &fixedWindow{resetAt: now.Add(window), length: window}
		m.windows[key] = w
	}

	if w.count >= limit {
		return false, w.resetAt.Sub(now)
	}
	w.count++
	return true, w.resetAt.Sub(now)
}

// Len reports the number of tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

func (m *MemoryLimiter) sweep(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}
