package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	store := NewStore()
	user := store.PutUser(model.User{Username: "alice"})
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := store.IncrementReputation(ctx, user.ID, 50, true); err != nil {
			return err
		}
		if _, err := store.InsertReputationEvent(ctx, model.ReputationEvent{UserID: user.ID, Value: 50}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("unexpected tx error: %v", err)
	}

	got, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ReputationScore != 0 || got.ReportsReceived != 0 {
		t.Fatalf("expected rollback, got score=%v reports=%d", got.ReputationScore, got.ReportsReceived)
	}
	sum, err := store.SumReputation(ctx, user.ID)
	if err != nil {
		t.Fatalf("sum reputation: %v", err)
	}
	if sum != 0 {
		t.Fatalf("expected no events after rollback, sum=%v", sum)
	}
}

func TestWithinTxNestedReusesOuter(t *testing.T) {
	store := NewStore()
	user := store.PutUser(model.User{Username: "bob"})
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		return store.WithinTx(ctx, func(ctx context.Context) error {
			_, err := store.IncrementReputation(ctx, user.ID, 2, false)
			return err
		})
	})
	if err != nil {
		t.Fatalf("nested tx: %v", err)
	}

	got, _ := store.GetUser(ctx, user.ID)
	if got.ReputationScore != 2 {
		t.Fatalf("unexpected score: got %v want %v", got.ReputationScore, 2)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := NewStore()
	if _, err := store.GetUser(context.Background(), "missing"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListReportsPagesNewestFirst(t *testing.T) {
	store := NewStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		r, err := store.InsertReport(ctx, model.Report{
			ReporterID: "reporter",
			TargetType: enums.ReportTargetMatch,
			Reason:     enums.ReportReasonSpam,
		})
		if err != nil {
			t.Fatalf("insert report: %v", err)
		}
		ids = append(ids, r.ID)
	}

	first, err := store.ListReports(ctx, []enums.ReportStatus{enums.ReportStatusPending}, "", 2)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(first) != 2 || first[0].ID != ids[4] || first[1].ID != ids[3] {
		t.Fatalf("unexpected first page order")
	}

	second, err := store.ListReports(ctx, []enums.ReportStatus{enums.ReportStatusPending}, first[1].ID, 10)
	if err != nil {
		t.Fatalf("list reports after cursor: %v", err)
	}
	if len(second) != 3 || second[0].ID != ids[2] {
		t.Fatalf("unexpected second page: %d items", len(second))
	}

	unknown, err := store.ListReports(ctx, nil, "no-such-id", 10)
	if err != nil {
		t.Fatalf("list reports with unknown cursor: %v", err)
	}
	if len(unknown) != 0 {
		t.Fatalf("expected empty page for unknown cursor, got %d", len(unknown))
	}
}

func TestInsertFollowRejectsDuplicate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.InsertFollow(ctx, "a", "b"); err != nil {
		t.Fatalf("insert follow: %v", err)
	}
	if _, err := store.InsertFollow(ctx, "a", "b"); !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	deleted, err := store.DeleteFollow(ctx, "a", "b")
	if err != nil || !deleted {
		t.Fatalf("delete follow: deleted=%v err=%v", deleted, err)
	}
	exists, _ := store.FollowExists(ctx, "a", "b")
	if exists {
		t.Fatalf("follow must be gone after delete")
	}
}

func TestListExpiredSuspensions(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := store.PutUser(model.User{Username: "expired", Status: enums.UserStatusSuspended, RestrictedUntil: &past})
	store.PutUser(model.User{Username: "still", Status: enums.UserStatusSuspended, RestrictedUntil: &future})
	store.PutUser(model.User{Username: "restricted", Status: enums.UserStatusActive, RestrictedUntil: &past})

	users, err := store.ListExpiredSuspensions(context.Background(), now, 10)
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(users) != 1 || users[0].ID != expired.ID {
		t.Fatalf("unexpected expired suspensions: %+v", users)
	}
}
