package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
	"github.com/LURY-TMP/matzon-platform/internal/repo/memory"
)

func TestFindByActorPaginates(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Record(ctx, model.AuditLog{ActorID: "admin", Action: enums.AuditUserBanned}); err != nil {
			t.Fatalf("record #%d: %v", i+1, err)
		}
	}
	if _, err := svc.Record(ctx, model.AuditLog{ActorID: "other", Action: enums.AuditUserBanned}); err != nil {
		t.Fatalf("record other: %v", err)
	}

	first, err := svc.FindByActor(ctx, "admin", "", 3)
	if err != nil {
		t.Fatalf("find first page: %v", err)
	}
	if len(first.Data) != 3 || !first.HasMore || first.NextCursor == nil {
		t.Fatalf("unexpected first page: len=%d has_more=%v", len(first.Data), first.HasMore)
	}

	second, err := svc.FindByActor(ctx, "admin", *first.NextCursor, 3)
	if err != nil {
		t.Fatalf("find second page: %v", err)
	}
	if len(second.Data) != 2 || second.HasMore || second.NextCursor != nil {
		t.Fatalf("unexpected second page: len=%d has_more=%v", len(second.Data), second.HasMore)
	}
	for _, entry := range append(first.Data, second.Data...) {
		if entry.ActorID != "admin" {
			t.Fatalf("unexpected actor in page: %s", entry.ActorID)
		}
	}
}

func TestFindByTargetAndAction(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	target := "user-1"

	if _, err := svc.Record(ctx, model.AuditLog{ActorID: "admin", Action: enums.AuditUserSuspended, TargetID: &target}); err != nil {
		t.Fatalf("record suspended: %v", err)
	}
	if _, err := svc.Record(ctx, model.AuditLog{ActorID: "admin", Action: enums.AuditUserReinstated, TargetID: &target}); err != nil {
		t.Fatalf("record reinstated: %v", err)
	}

	byTarget, err := svc.FindByTarget(ctx, target, "", 0)
	if err != nil {
		t.Fatalf("find by target: %v", err)
	}
	if len(byTarget.Data) != 2 {
		t.Fatalf("unexpected target entries: got %d want 2", len(byTarget.Data))
	}
	if byTarget.Data[0].Action != enums.AuditUserReinstated {
		t.Fatalf("expected newest first, got %s", byTarget.Data[0].Action)
	}

	byAction, err := svc.FindByAction(ctx, enums.AuditUserSuspended, "", 0)
	if err != nil {
		t.Fatalf("find by action: %v", err)
	}
	if len(byAction.Data) != 1 {
		t.Fatalf("unexpected action entries: got %d want 1", len(byAction.Data))
	}

	if _, err := svc.FindByAction(ctx, enums.AuditAction("NOPE"), "", 0); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("unexpected error for unknown action: %v", err)
	}
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	svc := NewService(memory.NewStore())
	if _, err := svc.Record(context.Background(), model.AuditLog{ActorID: "admin", Action: "NOPE"}); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestRecentDefaultsLimit(t *testing.T) {
	svc := NewService(memory.NewStore())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.Record(ctx, model.AuditLog{ActorID: "admin", Action: enums.AuditAdminOverride}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	recent, err := svc.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("unexpected recent count: got %d want 3", len(recent))
	}
}
