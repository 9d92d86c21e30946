package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

const notificationColumns = `id, user_id, type, title, message, actor_id, payload, read, created_at`

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) InsertNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.Notification{}, err
	}
	if n.Payload == nil {
		n.Payload = map[string]any{}
	}

	out, err := scanNotification(q.QueryRow(ctx, `
INSERT INTO notifications (user_id, type, title, message, actor_id, payload)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+notificationColumns, n.UserID, string(n.Type), n.Title, n.Message, n.ActorID, n.Payload))
	if err != nil {
		return model.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return out, nil
}

func (r *NotificationRepo) ListNotifications(ctx context.Context, userID, cursor string, limit int) ([]model.Notification, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
SELECT `+notificationColumns+`
FROM notifications
WHERE user_id = $1
	AND ($2::text = '' OR (created_at, id) < (SELECT created_at, id FROM notifications WHERE id = $2::text))
ORDER BY created_at DESC, id DESC
LIMIT $3
`, userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepo) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return 0, err
	}

	var count int
	if err := q.QueryRow(ctx, `
SELECT COUNT(*)::INT FROM notifications WHERE user_id = $1 AND NOT read
`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (r *NotificationRepo) MarkNotificationRead(ctx context.Context, userID, id string) (model.Notification, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.Notification{}, err
	}

	out, err := scanNotification(q.QueryRow(ctx, `
UPDATE notifications SET read = TRUE
WHERE id = $1 AND user_id = $2
RETURNING `+notificationColumns, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Notification{}, repo.ErrNotFound
		}
		return model.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return out, nil
}

func (r *NotificationRepo) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return 0, err
	}

	tag, err := q.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanNotification(row pgx.Row) (model.Notification, error) {
	var (
		n         model.Notification
		notifType string
	)
	if err := row.Scan(&n.ID, &n.UserID, &notifType, &n.Title, &n.Message, &n.ActorID, &n.Payload, &n.Read, &n.CreatedAt); err != nil {
		return model.Notification{}, err
	}
	n.Type = enums.NotificationType(notifType)
	return n, nil
}
