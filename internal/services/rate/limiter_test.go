package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/LURY-TMP/matzon-platform/internal/repo/redis"
)

func TestLimiterBlocksOn10SecondWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), 100, 2)

	ctx := context.Background()
	userID := "user-42"

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.Allow(ctx, ActionFollow, userID)
		if err != nil {
			t.Fatalf("allow follow #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, ActionFollow, userID)
	if err != nil {
		t.Fatalf("allow follow #3: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on third action in 10s window")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry_after, got %d", retryAfter)
	}

	currentRetry, err := limiter.RetryAfter(ctx, ActionFollow, userID)
	if err != nil {
		t.Fatalf("retry_after state: %v", err)
	}
	if currentRetry <= 0 {
		t.Fatalf("expected positive retry_after state, got %d", currentRetry)
	}

	mr.FastForward(11 * time.Second)

	retryAfter, allowed, err = limiter.Allow(ctx, ActionFollow, userID)
	if err != nil {
		t.Fatalf("allow follow after 10s window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterBlocksOnMinuteWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), 3, 100)

	ctx := context.Background()
	userID := "user-77"

	for i := 0; i < 3; i++ {
		retryAfter, allowed, err := limiter.Allow(ctx, ActionReport, userID)
		if err != nil {
			t.Fatalf("allow report #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, ActionReport, userID)
	if err != nil {
		t.Fatalf("allow report #4: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on fourth action in minute window")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry_after, got %d", retryAfter)
	}
}

func TestLimiterKeepsActionsSeparate(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewRateRepo(client), 1, 0)
	ctx := context.Background()

	if _, allowed, err := limiter.Allow(ctx, ActionReport, "u1"); err != nil || !allowed {
		t.Fatalf("unexpected report result: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := limiter.Allow(ctx, ActionFollow, "u1"); err != nil || !allowed {
		t.Fatalf("follow should use its own window: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := limiter.Allow(ctx, ActionReport, "u2"); err != nil || !allowed {
		t.Fatalf("second user should use its own window: allowed=%v err=%v", allowed, err)
	}
}

func TestLimiterRejectsMissingUser(t *testing.T) {
	limiter := NewLimiter(nil, 1, 1)
	if _, _, err := limiter.Allow(context.Background(), ActionReport, ""); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
