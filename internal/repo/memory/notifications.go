package memory

import (
	"context"
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

func (s *Store) InsertNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	err := s.do(ctx, func(st *state) error {
		id, now := s.stamp(st, n.ID)
		n.ID = id
		n.CreatedAt = now
		n.Read = false
		if n.Payload == nil {
			n.Payload = map[string]any{}
		}
		st.notifications = append(st.notifications, n)
		return nil
	})
	return n, err
}

func (s *Store) ListNotifications(ctx context.Context, userID, cursor string, limit int) ([]model.Notification, error) {
	var out []model.Notification
	err := s.do(ctx, func(st *state) error {
		var matched []model.Notification
		for _, n := range st.notifications {
			if n.UserID == userID {
				matched = append(matched, n)
			}
		}
		newestFirst(st, matched, notificationID, notificationCreatedAt)
		out = pageAfter(matched, cursor, limit, notificationID)
		return nil
	})
	return out, err
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	count := 0
	err := s.do(ctx, func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID == userID && !n.Read {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) (model.Notification, error) {
	var out model.Notification
	err := s.do(ctx, func(st *state) error {
		for i := range st.notifications {
			n := st.notifications[i]
			if n.ID != id || n.UserID != userID {
				continue
			}
			n.Read = true
			st.notifications[i] = n
			out = n
			return nil
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	updated := 0
	err := s.do(ctx, func(st *state) error {
		for i := range st.notifications {
			if st.notifications[i].UserID == userID && !st.notifications[i].Read {
				st.notifications[i].Read = true
				updated++
			}
		}
		return nil
	})
	return updated, err
}

func notificationID(n model.Notification) string           { return n.ID }
func notificationCreatedAt(n model.Notification) time.Time { return n.CreatedAt }
