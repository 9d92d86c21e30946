package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/validate"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

const (
	EventNotification = "notification"

	maxPageLimit  = 100
	maxTitleLen   = 200
	maxMessageLen = 2000
)

type Store interface {
	InsertNotification(ctx context.Context, n model.Notification) (model.Notification, error)
	ListNotifications(ctx context.Context, userID, cursor string, limit int) ([]model.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id string) (model.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
}

type Pusher interface {
	EmitToUser(userID, event string, payload any)
}

type Service struct {
	store  Store
	pusher Pusher
	logger *zap.Logger
}

func NewService(store Store, pusher Pusher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, pusher: pusher, logger: logger}
}

// Create persists the notification and pushes it to the user's open
// connections.
func (s *Service) Create(ctx context.Context, input model.NewNotification) (model.Notification, error) {
	if s.store == nil {
		return model.Notification{}, fmt.Errorf("notification store is not configured")
	}
	if !validate.Required(input.UserID) {
		return model.Notification{}, apperr.BadRequest("Notification recipient is required")
	}
	if !validate.Required(input.Title) || !validate.MaxLen(input.Title, maxTitleLen) {
		return model.Notification{}, apperr.BadRequest("Notification title must be 1-%d characters", maxTitleLen)
	}
	if !validate.MaxLen(input.Message, maxMessageLen) {
		return model.Notification{}, apperr.BadRequest("Notification message must be at most %d characters", maxMessageLen)
	}

	n, err := s.store.InsertNotification(ctx, model.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   input.Title,
		Message: input.Message,
		ActorID: input.ActorID,
		Payload: input.Payload,
	})
	if err != nil {
		return model.Notification{}, fmt.Errorf("insert notification: %w", err)
	}

	if s.pusher != nil {
		s.pusher.EmitToUser(n.UserID, EventNotification, map[string]any{
			"id":        n.ID,
			"type":      n.Type,
			"title":     n.Title,
			"message":   n.Message,
			"actorId":   n.ActorID,
			"payload":   n.Payload,
			"read":      false,
			"createdAt": n.CreatedAt,
		})
	}

	s.logger.Debug("notification sent", zap.String("user_id", n.UserID), zap.String("type", string(n.Type)))
	return n, nil
}

func (s *Service) ListByUser(ctx context.Context, userID, cursor string, limit int) (model.Page[model.Notification], error) {
	if s.store == nil {
		return model.Page[model.Notification]{}, fmt.Errorf("notification store is not configured")
	}
	limit = repo.ClampLimit(limit, maxPageLimit)

	rows, err := s.store.ListNotifications(ctx, userID, strings.TrimSpace(cursor), limit+1)
	if err != nil {
		return model.Page[model.Notification]{}, fmt.Errorf("list notifications: %w", err)
	}
	return model.NewPage(rows, limit, notificationID), nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	if s.store == nil {
		return 0, fmt.Errorf("notification store is not configured")
	}
	count, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead only touches notifications owned by userID.
func (s *Service) MarkAsRead(ctx context.Context, userID, id string) (model.Notification, error) {
	if s.store == nil {
		return model.Notification{}, fmt.Errorf("notification store is not configured")
	}
	n, err := s.store.MarkNotificationRead(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Notification{}, apperr.NotFound("Notification not found")
		}
		return model.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	if s.store == nil {
		return 0, fmt.Errorf("notification store is not configured")
	}
	updated, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return updated, nil
}

func notificationID(n model.Notification) string { return n.ID }
