package feed

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
	"github.com/LURY-TMP/matzon-platform/internal/repo/memory"
)

type recordingPusher struct {
	recipients []string
}

func (p *recordingPusher) EmitToUser(userID, event string, payload any) {
	if event == EventNewFeedEvent {
		p.recipients = append(p.recipients, userID)
	}
}

func seedGraph(t *testing.T, store *memory.Store) (alice, bob, carol model.User) {
	t.Helper()
	ctx := context.Background()

	alice = store.PutUser(model.User{Username: "alice"})
	bob = store.PutUser(model.User{Username: "bob"})
	carol = store.PutUser(model.User{Username: "carol"})

	// bob and carol follow alice; alice follows bob
	for _, pair := range [][2]string{{bob.ID, alice.ID}, {carol.ID, alice.ID}, {alice.ID, bob.ID}} {
		if _, err := store.InsertFollow(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("insert follow: %v", err)
		}
	}
	return alice, bob, carol
}

func TestCreateEventFansOutToFollowers(t *testing.T) {
	store := memory.NewStore()
	pusher := &recordingPusher{}
	svc := NewService(store, pusher, nil)
	alice, bob, carol := seedGraph(t, store)

	event, err := svc.CreateEvent(context.Background(), model.NewFeedEvent{
		ActorID: alice.ID,
		Type:    enums.FeedMatchWon,
		Title:   "alice won a match",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if event.Actor == nil || event.Actor.Username != "alice" {
		t.Fatalf("expected actor summary on event, got %+v", event.Actor)
	}

	got := append([]string(nil), pusher.recipients...)
	want := []string{bob.ID, carol.ID}
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected recipients: got %v want %v", got, want)
	}
}

func TestCreateEventRequiresActor(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil)
	if _, err := svc.CreateEvent(context.Background(), model.NewFeedEvent{Type: enums.FeedLevelUp, Title: "x"}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("unexpected error: got %v want bad request", err)
	}
}

func TestFeedViews(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, nil, nil)
	alice, bob, carol := seedGraph(t, store)
	ctx := context.Background()

	for _, actor := range []model.User{alice, bob, carol} {
		if _, err := svc.CreateEvent(ctx, model.NewFeedEvent{ActorID: actor.ID, Type: enums.FeedLevelUp, Title: actor.Username + " levelled up"}); err != nil {
			t.Fatalf("create event for %s: %v", actor.Username, err)
		}
	}

	personal, err := svc.PersonalFeed(ctx, alice.ID, "", 10)
	if err != nil {
		t.Fatalf("personal feed: %v", err)
	}
	if len(personal.Data) != 2 {
		t.Fatalf("unexpected personal feed size: got %d want 2", len(personal.Data))
	}
	for _, e := range personal.Data {
		if e.ActorID == carol.ID {
			t.Fatalf("personal feed must not include unfollowed actors")
		}
	}

	global, err := svc.GlobalFeed(ctx, "", 2)
	if err != nil {
		t.Fatalf("global feed: %v", err)
	}
	if len(global.Data) != 2 || !global.HasMore || global.Data[0].ActorID != carol.ID {
		t.Fatalf("unexpected global page: %+v", global)
	}

	own, err := svc.UserEvents(ctx, bob.ID, "", 0)
	if err != nil {
		t.Fatalf("user events: %v", err)
	}
	if len(own.Data) != 1 || own.Data[0].ActorID != bob.ID {
		t.Fatalf("unexpected user events: %+v", own.Data)
	}
}
