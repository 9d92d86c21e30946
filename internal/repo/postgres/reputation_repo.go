package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
)

type ReputationRepo struct {
	pool *pgxpool.Pool
}

func NewReputationRepo(pool *pgxpool.Pool) *ReputationRepo {
	return &ReputationRepo{pool: pool}
}

func (r *ReputationRepo) InsertReputationEvent(ctx context.Context, e model.ReputationEvent) (model.ReputationEvent, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.ReputationEvent{}, err
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}

	if err := q.QueryRow(ctx, `
INSERT INTO reputation_events (user_id, actor_id, type, value, reason, metadata)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at
`, e.UserID, e.ActorID, string(e.Type), e.Value, e.Reason, e.Metadata).Scan(&e.ID, &e.CreatedAt); err != nil {
		return model.ReputationEvent{}, fmt.Errorf("insert reputation event: %w", err)
	}
	return e, nil
}

func (r *ReputationRepo) ListReputationEvents(ctx context.Context, userID string, limit int) ([]model.ReputationEvent, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT id, user_id, actor_id, type, value, reason, metadata, created_at
FROM reputation_events
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reputation events: %w", err)
	}
	defer rows.Close()

	var events []model.ReputationEvent
	for rows.Next() {
		var (
			e   model.ReputationEvent
			typ string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.ActorID, &typ, &e.Value, &e.Reason, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reputation event: %w", err)
		}
		e.Type = enums.ReputationEventType(typ)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reputation events: %w", err)
	}
	return events, nil
}

func (r *ReputationRepo) ReputationBreakdown(ctx context.Context, userID string) ([]model.ReputationBreakdown, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT type, COALESCE(SUM(value), 0), COUNT(*)::INT
FROM reputation_events
WHERE user_id = $1
GROUP BY type
ORDER BY type
`, userID)
	if err != nil {
		return nil, fmt.Errorf("reputation breakdown: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ReputationBreakdown, error) {
		var (
			b   model.ReputationBreakdown
			typ string
		)
		err := row.Scan(&typ, &b.TotalValue, &b.Count)
		b.Type = enums.ReputationEventType(typ)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect reputation breakdown: %w", err)
	}
	return out, nil
}

func (r *ReputationRepo) SumReputation(ctx context.Context, userID string) (float64, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return 0, err
	}

	var total float64
	if err := q.QueryRow(ctx, `
SELECT COALESCE(SUM(value), 0) FROM reputation_events WHERE user_id = $1
`, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum reputation events: %w", err)
	}
	return total, nil
}
