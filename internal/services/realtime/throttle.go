package realtime

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// throttle keeps one token bucket per socket id. Buckets idle for longer
// than the window are dropped by sweep.
type throttle struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*throttleEntry
	now     func() time.Time
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newThrottle(limit int, window time.Duration) *throttle {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = 10 * time.Second
	}
	return &throttle{
		limit:   limit,
		window:  window,
		entries: make(map[string]*throttleEntry),
		now:     time.Now,
	}
}

func (t *throttle) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	entry, ok := t.entries[key]
	if !ok {
		entry = &throttleEntry{
			limiter: rate.NewLimiter(rate.Every(t.window/time.Duration(t.limit)), t.limit),
		}
		t.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (t *throttle) forget(key string) {
	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
}

func (t *throttle) sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.window)
	removed := 0
	for key, entry := range t.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(t.entries, key)
			removed++
		}
	}
	return removed
}

func (t *throttle) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
