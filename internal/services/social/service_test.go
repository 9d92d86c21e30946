package social

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/domain/rules"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
	"github.com/LURY-TMP/matzon-platform/internal/repo/memory"
	"github.com/LURY-TMP/matzon-platform/internal/services/effects"
	"github.com/LURY-TMP/matzon-platform/internal/services/feed"
	"github.com/LURY-TMP/matzon-platform/internal/services/notifications"
	"github.com/LURY-TMP/matzon-platform/internal/services/reputation"
)

type recordingPusher struct {
	mu     sync.Mutex
	events map[string][]string
}

func (p *recordingPusher) EmitToUser(userID, event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string][]string)
	}
	p.events[userID] = append(p.events[userID], event)
}

func (p *recordingPusher) has(userID, event string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events[userID] {
		if e == event {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T) (*Service, *memory.Store, *recordingPusher) {
	t.Helper()

	store := memory.NewStore()
	pusher := &recordingPusher{}
	dispatcher := effects.NewDispatcher(effects.Sinks{
		Pusher:   pusher,
		Notifier: notifications.NewService(store, pusher, nil),
		Feed:     feed.NewService(store, pusher, nil),
	}, nil)
	repSvc := reputation.NewService(reputation.Dependencies{
		Tx:         store,
		Users:      store,
		Events:     store,
		Dispatcher: dispatcher,
		Rules:      rules.DefaultReputation(),
	})
	svc := NewService(Dependencies{
		Tx:         store,
		Users:      store,
		Follows:    store,
		Reputation: repSvc,
		Dispatcher: dispatcher,
	})
	return svc, store, pusher
}

func TestFollowUpdatesCountersReputationAndEffects(t *testing.T) {
	svc, store, pusher := newTestService(t)
	ctx := context.Background()
	alice := store.PutUser(model.User{Username: "alice"})
	bob := store.PutUser(model.User{Username: "bob"})

	if _, err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	a, _ := store.GetUser(ctx, alice.ID)
	b, _ := store.GetUser(ctx, bob.ID)
	if a.Following != 1 || b.Followers != 1 {
		t.Fatalf("unexpected counters: following=%d followers=%d", a.Following, b.Followers)
	}
	if a.ReputationScore != 0.5 || b.ReputationScore != 2 {
		t.Fatalf("unexpected scores: follower=%v target=%v", a.ReputationScore, b.ReputationScore)
	}

	notes, err := store.ListNotifications(ctx, bob.ID, "", 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Type != enums.NotificationFollowNew || notes[0].Message != "alice started following you" {
		t.Fatalf("unexpected notifications: %+v", notes)
	}

	events, err := store.ListFeedEvents(ctx, []string{alice.ID}, "", 10)
	if err != nil {
		t.Fatalf("list feed events: %v", err)
	}
	if len(events) != 1 || events[0].Type != enums.FeedUserFollowed {
		t.Fatalf("unexpected feed events: %+v", events)
	}

	for _, want := range []string{EventFollowed, notifications.EventNotification, reputation.EventUpdated} {
		if !pusher.has(bob.ID, want) {
			t.Fatalf("expected %s push to target, got %v", want, pusher.events[bob.ID])
		}
	}
	if !pusher.has(alice.ID, reputation.EventUpdated) {
		t.Fatalf("expected reputation push to follower, got %v", pusher.events[alice.ID])
	}
}

func TestFollowRejections(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	alice := store.PutUser(model.User{Username: "alice"})
	bob := store.PutUser(model.User{Username: "bob"})
	banned := store.PutUser(model.User{Username: "banned", Status: enums.UserStatusBanned})

	if _, err := svc.Follow(ctx, alice.ID, alice.ID); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("self follow: got %v want bad request", err)
	}
	if _, err := svc.Follow(ctx, alice.ID, "ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing target: got %v want not found", err)
	}
	if _, err := svc.Follow(ctx, alice.ID, banned.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("banned target: got %v want not found", err)
	}
	if _, err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if _, err := svc.Follow(ctx, alice.ID, bob.ID); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate follow: got %v want conflict", err)
	}
}

func TestFollowLimitGating(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	follower := store.PutUser(model.User{Username: "eager", Following: 19})
	first := store.PutUser(model.User{Username: "first"})
	second := store.PutUser(model.User{Username: "second"})

	if _, err := svc.Follow(ctx, follower.ID, first.ID); err != nil {
		t.Fatalf("follow 19 -> 20: %v", err)
	}

	_, err := svc.Follow(ctx, follower.ID, second.ID)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("21st follow: got %v want forbidden", err)
	}
	if msg, _ := apperr.Message(err); !strings.Contains(msg, "20/20") {
		t.Fatalf("expected current/limit in message, got %q", msg)
	}
}

func TestUnfollowKeepsReputation(t *testing.T) {
	svc, store, pusher := newTestService(t)
	ctx := context.Background()
	alice := store.PutUser(model.User{Username: "alice"})
	bob := store.PutUser(model.User{Username: "bob"})

	if err := svc.Unfollow(ctx, alice.ID, alice.ID); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("self unfollow: got %v want bad request", err)
	}
	if err := svc.Unfollow(ctx, alice.ID, bob.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unfollow without follow: got %v want not found", err)
	}

	if _, err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := svc.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}

	a, _ := store.GetUser(ctx, alice.ID)
	b, _ := store.GetUser(ctx, bob.ID)
	if a.Following != 0 || b.Followers != 0 {
		t.Fatalf("unexpected counters after unfollow: following=%d followers=%d", a.Following, b.Followers)
	}
	if b.ReputationScore != 2 {
		t.Fatalf("unfollow must not revoke reputation: got %v want 2", b.ReputationScore)
	}
	if !pusher.has(bob.ID, EventUnfollowed) {
		t.Fatalf("expected unfollow push, got %v", pusher.events[bob.ID])
	}
}

func TestListingsAndRelationship(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	alice := store.PutUser(model.User{Username: "alice"})
	bob := store.PutUser(model.User{Username: "bob"})
	carol := store.PutUser(model.User{Username: "carol"})

	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}, {carol.ID, alice.ID}} {
		if _, err := svc.Follow(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("follow: %v", err)
		}
	}

	followers, err := svc.Followers(ctx, alice.ID, "", 1)
	if err != nil {
		t.Fatalf("followers: %v", err)
	}
	if len(followers.Data) != 1 || !followers.HasMore || followers.Data[0].User.ID != carol.ID {
		t.Fatalf("unexpected followers page: %+v", followers)
	}
	rest, err := svc.Followers(ctx, alice.ID, *followers.NextCursor, 1)
	if err != nil {
		t.Fatalf("followers next: %v", err)
	}
	if len(rest.Data) != 1 || rest.HasMore || rest.Data[0].User.ID != bob.ID {
		t.Fatalf("unexpected second followers page: %+v", rest)
	}

	following, err := svc.Following(ctx, carol.ID, "", 0)
	if err != nil {
		t.Fatalf("following: %v", err)
	}
	if len(following.Data) != 1 || following.Data[0].User.Username != "alice" {
		t.Fatalf("unexpected following page: %+v", following)
	}

	rel, err := svc.Relationship(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("relationship: %v", err)
	}
	if !rel.IsFollowing || !rel.IsFollowedBy || !rel.IsMutual {
		t.Fatalf("unexpected mutual relationship: %+v", rel)
	}
	rel, err = svc.Relationship(ctx, alice.ID, carol.ID)
	if err != nil {
		t.Fatalf("relationship: %v", err)
	}
	if rel.IsFollowing || !rel.IsFollowedBy || rel.IsMutual {
		t.Fatalf("unexpected one-way relationship: %+v", rel)
	}
}

type lockingUsers struct {
	*memory.Store
	mu     sync.Mutex
	locked []string
}

func (u *lockingUsers) LockUser(ctx context.Context, id string) (model.User, error) {
	u.mu.Lock()
	u.locked = append(u.locked, id)
	u.mu.Unlock()
	return u.Store.LockUser(ctx, id)
}

func TestFollowLocksFollowerRow(t *testing.T) {
	store := memory.NewStore()
	users := &lockingUsers{Store: store}
	repSvc := reputation.NewService(reputation.Dependencies{
		Tx:     store,
		Users:  store,
		Events: store,
		Rules:  rules.DefaultReputation(),
	})
	svc := NewService(Dependencies{
		Tx:         store,
		Users:      users,
		Follows:    store,
		Reputation: repSvc,
	})
	ctx := context.Background()
	alice := store.PutUser(model.User{Username: "alice"})
	bob := store.PutUser(model.User{Username: "bob"})

	if _, err := svc.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if len(users.locked) == 0 || users.locked[0] != alice.ID {
		t.Fatalf("unexpected locked rows: got %v want first %s", users.locked, alice.ID)
	}
}

func TestConcurrentFollowsRespectLimit(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	follower := store.PutUser(model.User{Username: "eager", Following: 18})
	targets := make([]model.User, 6)
	for i := range targets {
		targets[i] = store.PutUser(model.User{Username: "target"})
	}

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = svc.Follow(ctx, follower.ID, id)
		}(target.ID)
	}
	wg.Wait()

	got, err := store.GetUser(ctx, follower.ID)
	if err != nil {
		t.Fatalf("get follower: %v", err)
	}
	if got.Following != 20 {
		t.Fatalf("unexpected following count: got %d want %d", got.Following, 20)
	}
}
