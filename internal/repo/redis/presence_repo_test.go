package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestPresenceTracksSockets(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	repo := NewPresenceRepo(client)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	ctx := context.Background()
	if count, err := repo.AddSocket(ctx, "u1", "s1"); err != nil || count != 1 {
		t.Fatalf("unexpected first socket: count=%d err=%v", count, err)
	}
	if count, err := repo.AddSocket(ctx, "u1", "s2"); err != nil || count != 2 {
		t.Fatalf("unexpected second socket: count=%d err=%v", count, err)
	}
	if _, err := repo.AddSocket(ctx, "u2", "s3"); err != nil {
		t.Fatalf("add socket u2: %v", err)
	}

	online, err := repo.OnlineCount(ctx)
	if err != nil || online != 2 {
		t.Fatalf("unexpected online count: got %d err=%v want 2", online, err)
	}

	remaining, err := repo.RemoveSocket(ctx, "u1", "s1")
	if err != nil || remaining != 1 {
		t.Fatalf("unexpected remaining: got %d err=%v want 1", remaining, err)
	}
	if ok, _ := repo.IsOnline(ctx, "u1"); !ok {
		t.Fatalf("expected u1 still online with one socket")
	}

	remaining, err = repo.RemoveSocket(ctx, "u1", "s2")
	if err != nil || remaining != 0 {
		t.Fatalf("unexpected remaining: got %d err=%v want 0", remaining, err)
	}
	if ok, _ := repo.IsOnline(ctx, "u1"); ok {
		t.Fatalf("expected u1 offline after last socket closed")
	}

	seen, ok, err := repo.LastSeen(ctx, "u1")
	if err != nil || !ok || !seen.Equal(fixed) {
		t.Fatalf("unexpected last seen: got %v ok=%v err=%v want %v", seen, ok, err, fixed)
	}
	if _, ok, _ := repo.LastSeen(ctx, "nobody"); ok {
		t.Fatalf("expected no last seen for unknown user")
	}
}

func TestPresenceRejectsBlankIDs(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	if _, err := NewPresenceRepo(client).AddSocket(context.Background(), " ", "s1"); err == nil {
		t.Fatalf("expected error for blank user id")
	}
}
