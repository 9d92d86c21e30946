//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/domain/rules"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
	"github.com/LURY-TMP/matzon-platform/internal/repo/postgres"
	"github.com/LURY-TMP/matzon-platform/internal/services/reputation"
	"github.com/LURY-TMP/matzon-platform/internal/services/social"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func insertUser(t *testing.T, pool *pgxpool.Pool, following int) string {
	t.Helper()

	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (username, following) VALUES ($1, $2) RETURNING id`,
		"it-"+uuid.NewString(), following,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func newReputation(pool *pgxpool.Pool) *reputation.Service {
	return reputation.NewService(reputation.Dependencies{
		Tx:     postgres.NewTransactor(pool),
		Users:  postgres.NewUserRepo(pool),
		Events: postgres.NewReputationRepo(pool),
		Rules:  rules.DefaultReputation(),
	})
}

func TestIncrementReputationMatchesEventSum(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	userID := insertUser(t, pool, 0)
	svc := newReputation(pool)

	var last float64
	for _, typ := range []enums.ReputationEventType{
		enums.ReputationMatchWin,
		enums.ReputationMatchLoss,
		enums.ReputationFollowReceived,
	} {
		res, err := svc.AddEvent(ctx, reputation.AddEventInput{UserID: userID, Type: typ})
		if err != nil {
			t.Fatalf("add %s: %v", typ, err)
		}
		last = res.ReputationScore
	}

	sum, err := postgres.NewReputationRepo(pool).SumReputation(ctx, userID)
	if err != nil {
		t.Fatalf("sum reputation: %v", err)
	}
	user, err := postgres.NewUserRepo(pool).GetUser(ctx, userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.ReputationScore != sum || last != sum {
		t.Fatalf("unexpected score: got stored %v returned %v want %v", user.ReputationScore, last, sum)
	}
}

func TestDuplicatePendingReportMapsToErrDuplicate(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	reporter := insertUser(t, pool, 0)
	target := insertUser(t, pool, 0)
	reports := postgres.NewReportRepo(pool)

	rep := model.Report{
		ReporterID:   reporter,
		TargetUserID: &target,
		TargetType:   enums.ReportTargetUser,
		Reason:       enums.ReportReasonSpam,
	}
	if _, err := reports.InsertReport(ctx, rep); err != nil {
		t.Fatalf("first report: %v", err)
	}
	if _, err := reports.InsertReport(ctx, rep); !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("unexpected second report error: got %v want %v", err, repo.ErrDuplicate)
	}
}

func TestListReportsCursorPagination(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	reporter := insertUser(t, pool, 0)
	reports := postgres.NewReportRepo(pool)

	for i := 0; i < 3; i++ {
		target := insertUser(t, pool, 0)
		if _, err := reports.InsertReport(ctx, model.Report{
			ReporterID:   reporter,
			TargetUserID: &target,
			TargetType:   enums.ReportTargetUser,
			Reason:       enums.ReportReasonSpam,
		}); err != nil {
			t.Fatalf("insert report #%d: %v", i+1, err)
		}
	}

	statuses := []enums.ReportStatus{enums.ReportStatusPending}
	first, err := reports.ListReports(ctx, statuses, "", 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("unexpected first page size: got %d want %d", len(first), 2)
	}
	second, err := reports.ListReports(ctx, statuses, first[1].ID, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	seen := map[string]bool{first[0].ID: true, first[1].ID: true}
	for _, rep := range second {
		if seen[rep.ID] {
			t.Fatalf("report %s returned on both pages", rep.ID)
		}
		if rep.CreatedAt.After(first[1].CreatedAt) {
			t.Fatalf("unexpected order: %s after cursor %s", rep.CreatedAt, first[1].CreatedAt)
		}
	}
}

func TestConcurrentFollowsStopAtLimit(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	follower := insertUser(t, pool, 19)
	svc := social.NewService(social.Dependencies{
		Tx:         postgres.NewTransactor(pool),
		Users:      postgres.NewUserRepo(pool),
		Follows:    postgres.NewSocialRepo(pool),
		Reputation: newReputation(pool),
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		target := insertUser(t, pool, 0)
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = svc.Follow(ctx, follower, id)
		}(target)
	}
	wg.Wait()

	user, err := postgres.NewUserRepo(pool).GetUser(ctx, follower)
	if err != nil {
		t.Fatalf("get follower: %v", err)
	}
	if user.Following != 20 {
		t.Fatalf("unexpected following count: got %d want %d", user.Following, 20)
	}
}
