package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

const reportColumns = `id, reporter_id, target_user_id, target_type, target_id, reason, description,
	status, resolved_by, resolved_note, created_at, resolved_at`

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

func (r *ReportRepo) InsertReport(ctx context.Context, rep model.Report) (model.Report, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.Report{}, err
	}
	if rep.Status == "" {
		rep.Status = enums.ReportStatusPending
	}

	out, err := scanReport(q.QueryRow(ctx, `
INSERT INTO reports (reporter_id, target_user_id, target_type, target_id, reason, description, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+reportColumns,
		rep.ReporterID,
		rep.TargetUserID,
		string(rep.TargetType),
		rep.TargetID,
		string(rep.Reason),
		rep.Description,
		string(rep.Status),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Report{}, repo.ErrDuplicate
		}
		return model.Report{}, fmt.Errorf("insert report: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) LockReport(ctx context.Context, id string) (model.Report, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.Report{}, err
	}

	out, err := scanReport(q.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Report{}, repo.ErrNotFound
		}
		return model.Report{}, fmt.Errorf("lock report: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) ResolveReport(ctx context.Context, id string, res model.ReportResolution) (model.Report, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.Report{}, err
	}

	out, err := scanReport(q.QueryRow(ctx, `
UPDATE reports SET
	status = $2,
	resolved_by = $3,
	resolved_note = $4,
	resolved_at = $5
WHERE id = $1
RETURNING `+reportColumns, id, string(res.Status), res.ResolvedBy, res.Note, res.ResolvedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Report{}, repo.ErrNotFound
		}
		return model.Report{}, fmt.Errorf("resolve report: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) CountReportsFiledSince(ctx context.Context, reporterID string, since time.Time) (int, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return 0, err
	}

	var count int
	if err := q.QueryRow(ctx, `
SELECT COUNT(*)::INT FROM reports WHERE reporter_id = $1 AND created_at >= $2
`, reporterID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reports filed since: %w", err)
	}
	return count, nil
}

func (r *ReportRepo) HasPendingReport(ctx context.Context, reporterID, targetUserID string) (bool, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := q.QueryRow(ctx, `
SELECT EXISTS(
	SELECT 1 FROM reports
	WHERE reporter_id = $1 AND target_user_id = $2 AND status = 'PENDING'
)
`, reporterID, targetUserID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check pending report: %w", err)
	}
	return exists, nil
}

func (r *ReportRepo) ListReports(ctx context.Context, statuses []enums.ReportStatus, cursor string, limit int) ([]model.Report, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT `+reportColumns+`
FROM reports
WHERE (cardinality($1::text[]) = 0 OR status = ANY($1::text[]))
	AND ($2::text = '' OR (created_at, id) < (SELECT created_at, id FROM reports WHERE id = $2::text))
ORDER BY created_at DESC, id DESC
LIMIT $3
`, statusStrings(statuses), cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []model.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) CountReports(ctx context.Context, statuses ...enums.ReportStatus) (int, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return 0, err
	}

	var count int
	if err := q.QueryRow(ctx, `
SELECT COUNT(*)::INT FROM reports
WHERE cardinality($1::text[]) = 0 OR status = ANY($1::text[])
`, statusStrings(statuses)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return count, nil
}

func statusStrings(statuses []enums.ReportStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func scanReport(row pgx.Row) (model.Report, error) {
	var (
		rep        model.Report
		targetType string
		reason     string
		status     string
	)
	err := row.Scan(
		&rep.ID,
		&rep.ReporterID,
		&rep.TargetUserID,
		&targetType,
		&rep.TargetID,
		&reason,
		&rep.Description,
		&status,
		&rep.ResolvedBy,
		&rep.ResolvedNote,
		&rep.CreatedAt,
		&rep.ResolvedAt,
	)
	if err != nil {
		return model.Report{}, err
	}
	rep.TargetType = enums.ReportTargetType(targetType)
	rep.Reason = enums.ReportReason(reason)
	rep.Status = enums.ReportStatus(status)
	return rep, nil
}
