package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
	"github.com/LURY-TMP/matzon-platform/internal/repo/memory"
)

type recordingPusher struct {
	userIDs []string
	events  []string
	last    map[string]any
}

func (p *recordingPusher) EmitToUser(userID, event string, payload any) {
	p.userIDs = append(p.userIDs, userID)
	p.events = append(p.events, event)
	p.last, _ = payload.(map[string]any)
}

func TestCreatePersistsAndPushes(t *testing.T) {
	pusher := &recordingPusher{}
	svc := NewService(memory.NewStore(), pusher, nil)
	actor := "actor-1"

	n, err := svc.Create(context.Background(), model.NewNotification{
		UserID:  "user-1",
		Type:    enums.NotificationFollowNew,
		Title:   "New Follower",
		Message: "bob started following you",
		ActorID: &actor,
	})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if n.ID == "" || n.Read {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if len(pusher.events) != 1 || pusher.events[0] != EventNotification || pusher.userIDs[0] != "user-1" {
		t.Fatalf("unexpected pushes: users=%v events=%v", pusher.userIDs, pusher.events)
	}
	if pusher.last["id"] != n.ID || pusher.last["read"] != false {
		t.Fatalf("unexpected push payload: %+v", pusher.last)
	}
}

func TestCreateRejectsMissingTitle(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil)
	if _, err := svc.Create(context.Background(), model.NewNotification{UserID: "user-1"}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("unexpected error: got %v want bad request", err)
	}
}

func TestReadLifecycle(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := svc.Create(ctx, model.NewNotification{UserID: "user-1", Type: enums.NotificationSystemAnnouncement, Title: "Hello"})
		if err != nil {
			t.Fatalf("create #%d: %v", i+1, err)
		}
		ids = append(ids, n.ID)
	}
	if _, err := svc.Create(ctx, model.NewNotification{UserID: "user-2", Type: enums.NotificationSystemAnnouncement, Title: "Other"}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	unread, err := svc.UnreadCount(ctx, "user-1")
	if err != nil || unread != 3 {
		t.Fatalf("unexpected unread count: got %d err=%v want 3", unread, err)
	}

	if _, err := svc.MarkAsRead(ctx, "user-2", ids[0]); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("mark foreign notification: got %v want not found", err)
	}
	read, err := svc.MarkAsRead(ctx, "user-1", ids[0])
	if err != nil || !read.Read {
		t.Fatalf("mark as read: read=%v err=%v", read.Read, err)
	}
	if unread, _ := svc.UnreadCount(ctx, "user-1"); unread != 2 {
		t.Fatalf("unexpected unread after mark: got %d want 2", unread)
	}

	updated, err := svc.MarkAllAsRead(ctx, "user-1")
	if err != nil || updated != 2 {
		t.Fatalf("mark all: updated=%d err=%v want 2", updated, err)
	}
	if unread, _ := svc.UnreadCount(ctx, "user-2"); unread != 1 {
		t.Fatalf("mark all must not touch other users: got %d want 1", unread)
	}

	page, err := svc.ListByUser(ctx, "user-1", "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 2 || !page.HasMore || page.Data[0].ID != ids[2] {
		t.Fatalf("unexpected page: %+v", page)
	}
}
