package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	minuteWindow = time.Minute
	tenSecWindow = 10 * time.Second
)

// Write actions guarded by the limiter.
const (
	ActionReport = "report"
	ActionFollow = "follow"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limiter applies a per-minute and a per-10-second cap to each
// (action, user) pair. A zero cap disables that window.
type Limiter struct {
	store     WindowStore
	perMinute int
	per10Sec  int
}

func NewLimiter(store WindowStore, perMinute, per10Sec int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	if per10Sec < 0 {
		per10Sec = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
		per10Sec:  per10Sec,
	}
}

// Allow counts one attempt and reports whether it fits both windows. When it
// does not, retryAfterSec is the longest remaining window TTL.
func (l *Limiter) Allow(ctx context.Context, action, userID string) (int64, bool, error) {
	if err := l.check(action, userID); err != nil {
		return 0, false, err
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows() {
		count, ttl, err := l.store.IncrementWindow(ctx, windowKey(action, w.name, userID), w.size)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

// RetryAfter reads the windows without counting an attempt.
func (l *Limiter) RetryAfter(ctx context.Context, action, userID string) (int64, error) {
	if err := l.check(action, userID); err != nil {
		return 0, err
	}

	retryAfterSec := int64(0)
	for _, w := range l.windows() {
		count, ttl, err := l.store.WindowState(ctx, windowKey(action, w.name, userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(w.limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}
	return retryAfterSec, nil
}

type window struct {
	name  string
	size  time.Duration
	limit int
}

func (l *Limiter) windows() []window {
	out := make([]window, 0, 2)
	if l.perMinute > 0 {
		out = append(out, window{name: "min", size: minuteWindow, limit: l.perMinute})
	}
	if l.per10Sec > 0 {
		out = append(out, window{name: "10s", size: tenSecWindow, limit: l.per10Sec})
	}
	return out
}

func (l *Limiter) check(action, userID string) error {
	if strings.TrimSpace(action) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("action and user id are required")
	}
	if l.store == nil {
		return fmt.Errorf("rate limiter store is nil")
	}
	return nil
}

func windowKey(action, window, userID string) string {
	return "rate:" + action + ":" + window + ":" + userID
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
