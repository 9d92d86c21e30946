package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) InsertAuditLog(ctx context.Context, a model.AuditLog) (model.AuditLog, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.AuditLog{}, err
	}
	if a.Details == nil {
		a.Details = map[string]any{}
	}

	if err := q.QueryRow(ctx, `
INSERT INTO audit_logs (actor_id, action, target_id, details)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at
`, a.ActorID, string(a.Action), a.TargetID, a.Details).Scan(&a.ID, &a.CreatedAt); err != nil {
		return model.AuditLog{}, fmt.Errorf("insert audit log: %w", err)
	}
	return a, nil
}

func (r *AuditRepo) ListAuditLogs(ctx context.Context, f model.AuditFilter, cursor string, limit int) ([]model.AuditLog, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT id, actor_id, action, target_id, details, created_at
FROM audit_logs
WHERE ($1::text = '' OR actor_id = $1::text)
	AND ($2::text = '' OR target_id = $2::text)
	AND ($3::text = '' OR action = $3::text)
	AND ($4::text = '' OR (created_at, id) < (SELECT created_at, id FROM audit_logs WHERE id = $4::text))
ORDER BY created_at DESC, id DESC
LIMIT $5
`, f.ActorID, f.TargetID, string(f.Action), cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var out []model.AuditLog
	for rows.Next() {
		var (
			a      model.AuditLog
			action string
		)
		if err := rows.Scan(&a.ID, &a.ActorID, &action, &a.TargetID, &a.Details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		a.Action = enums.AuditAction(action)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit logs: %w", err)
	}
	return out, nil
}
