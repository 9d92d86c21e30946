package realtime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEmitToUserDropsWhenBufferIsFull(t *testing.T) {
	hub := NewHub(Config{SendBuffer: 1}, nil)
	c := newClient("s1", "u1", "alice", 1)
	hub.register(c)

	hub.EmitToUser("u1", "first", map[string]any{"n": 1})
	hub.EmitToUser("u1", "second", map[string]any{"n": 2})

	if len(c.send) != 1 {
		t.Fatalf("unexpected queued frames: got %d want 1", len(c.send))
	}
	var env struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(<-c.send, &env); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if env.Event != "first" {
		t.Fatalf("unexpected frame kept: got %q want first", env.Event)
	}
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	hub := NewHub(Config{}, nil)
	a := newClient("s1", "u1", "", 4)
	b := newClient("s2", "u1", "", 4)
	hub.register(a)
	hub.register(b)
	hub.join(a, MatchRoom("m1"))
	hub.join(a, TournamentRoom("t1"))

	if got := hub.RoomSize(UserRoom("u1")); got != 2 {
		t.Fatalf("unexpected user room size: got %d want 2", got)
	}
	if remaining := hub.unregister(a); remaining != 1 {
		t.Fatalf("unexpected remaining sockets: got %d want 1", remaining)
	}
	if hub.RoomSize(MatchRoom("m1")) != 0 || hub.RoomSize(TournamentRoom("t1")) != 0 {
		t.Fatalf("closed client must leave every room")
	}

	hub.EmitToUser("u1", "after", nil)
	if len(a.send) != 0 {
		t.Fatalf("closed client must not receive frames")
	}
	if len(b.send) != 1 {
		t.Fatalf("open client must receive frames: got %d", len(b.send))
	}
	if hub.OnlineUsers() != 1 {
		t.Fatalf("unexpected online users: got %d want 1", hub.OnlineUsers())
	}
}

func TestEmitGlobalReachesEveryClient(t *testing.T) {
	hub := NewHub(Config{}, nil)
	clients := []*Client{newClient("s1", "u1", "", 4), newClient("s2", "u2", "", 4), newClient("s3", "u3", "", 4)}
	for _, c := range clients {
		hub.register(c)
	}

	hub.EmitGlobal("announcement", map[string]any{"text": "hello"})
	for _, c := range clients {
		if len(c.send) != 1 {
			t.Fatalf("client %s missed global frame", c.id)
		}
	}
}

func TestThrottleRejectsAfterBurstAndRefills(t *testing.T) {
	th := newThrottle(30, 10*time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return now }

	for i := 0; i < 30; i++ {
		if !th.allow("s1") {
			t.Fatalf("frame %d should pass", i+1)
		}
	}
	if th.allow("s1") {
		t.Fatalf("31st frame inside the window must be throttled")
	}
	if !th.allow("s2") {
		t.Fatalf("other sockets have their own bucket")
	}

	now = now.Add(10 * time.Second)
	if !th.allow("s1") {
		t.Fatalf("bucket should refill after the window")
	}
}

func TestThrottleSweepDropsIdleBuckets(t *testing.T) {
	th := newThrottle(30, 10*time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return now }

	th.allow("idle")
	now = now.Add(8 * time.Second)
	th.allow("busy")
	now = now.Add(3 * time.Second)

	if removed := th.sweep(); removed != 1 {
		t.Fatalf("unexpected swept buckets: got %d want 1", removed)
	}
	if th.size() != 1 {
		t.Fatalf("unexpected remaining buckets: got %d want 1", th.size())
	}
}
