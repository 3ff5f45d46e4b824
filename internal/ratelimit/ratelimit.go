// internal/ratelimit/ratelimit.go
//
// Fixed-window submission limiter.
//
// Context
// -------
// Public submissions are limited per client key (the caller's IP address):
// at most Max accepted calls per Window.  The first call opens a window;
// once the window expires the next call opens a fresh one.  This is the
// same counting rule whether the counters live in process memory (Memory)
// or in Redis (Redis), so a single-node deployment and a fleet behave the
// same way.
//
// Notes
// -----
// • A rejected call does not extend the window.
// • Oxford commas, two spaces after periods.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/yanizio/adept-forms/internal/cache"
)

// Defaults for public submissions: 10 per hour per IP.
const (
	DefaultMax    = 10
	DefaultWindow = time.Hour
	// DefaultKeys bounds how many client windows Memory tracks.
	DefaultKeys = 100_000
)

// Limiter decides whether one more call under key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// Memory keeps windows in a bounded LRU.  Safe for concurrent use.
type Memory struct {
	max    int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows *cache.LRU[string, window]
}

// NewMemory returns an in-process limiter.  Zero arguments select defaults.
func NewMemory(limit int, period time.Duration, keys int) *Memory {
	if limit <= 0 {
		limit = DefaultMax
	}
	if period <= 0 {
		period = DefaultWindow
	}
	if keys <= 0 {
		keys = DefaultKeys
	}
	return &Memory{
		max:     limit,
		period:  period,
		now:     time.Now,
		windows: cache.New[string, window](keys),
	}
}

// Allow implements Limiter.  It never returns an error.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows.Get(key)
	if !ok || now.After(w.resetAt) {
		m.windows.Add(key, window{count: 1, resetAt: now.Add(m.period)})
		return true, nil
	}
	if w.count >= m.max {
		return false, nil
	}
	w.count++
	m.windows.Add(key, w)
	return true, nil
}
