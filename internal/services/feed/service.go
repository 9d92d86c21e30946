package feed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/validate"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

const (
	EventNewFeedEvent = "feed:new_event"

	maxPageSize = 50
)

type Repository interface {
	InsertFeedEvent(ctx context.Context, e model.FeedEvent) (model.FeedEvent, error)
	ListFeedEvents(ctx context.Context, actorIDs []string, cursor string, limit int) ([]model.FeedEvent, error)
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

type Pusher interface {
	EmitToUser(userID, event string, payload any)
}

type Service struct {
	repo   Repository
	pusher Pusher
	logger *zap.Logger
}

func NewService(repo Repository, pusher Pusher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, pusher: pusher, logger: logger}
}

// CreateEvent stores the event and pushes it to every follower of the actor.
func (s *Service) CreateEvent(ctx context.Context, input model.NewFeedEvent) (model.FeedEvent, error) {
	if s.repo == nil {
		return model.FeedEvent{}, fmt.Errorf("feed repository is not configured")
	}
	if !validate.Required(input.ActorID) {
		return model.FeedEvent{}, apperr.BadRequest("Feed actor is required")
	}
	if !validate.Required(string(input.Type)) || !validate.Required(input.Title) {
		return model.FeedEvent{}, apperr.BadRequest("Feed event type and title are required")
	}

	event, err := s.repo.InsertFeedEvent(ctx, model.FeedEvent{
		ActorID: input.ActorID,
		Type:    input.Type,
		Title:   input.Title,
		Summary: input.Summary,
		Payload: input.Payload,
	})
	if err != nil {
		return model.FeedEvent{}, fmt.Errorf("insert feed event: %w", err)
	}

	followers, err := s.repo.FollowerIDs(ctx, input.ActorID)
	if err != nil {
		s.logger.Warn("feed fan-out skipped", zap.String("event_id", event.ID), zap.Error(err))
		return event, nil
	}

	if s.pusher != nil {
		payload := map[string]any{
			"id":        event.ID,
			"actorId":   event.ActorID,
			"type":      event.Type,
			"title":     event.Title,
			"summary":   event.Summary,
			"payload":   event.Payload,
			"createdAt": event.CreatedAt,
			"actor":     event.Actor,
		}
		for _, followerID := range followers {
			s.pusher.EmitToUser(followerID, EventNewFeedEvent, payload)
		}
	}

	s.logger.Debug("feed event created",
		zap.String("actor_id", event.ActorID),
		zap.String("type", string(event.Type)),
		zap.Int("followers", len(followers)),
	)
	return event, nil
}

// PersonalFeed shows events by the users userID follows plus their own.
func (s *Service) PersonalFeed(ctx context.Context, userID, cursor string, limit int) (model.Page[model.FeedEvent], error) {
	if s.repo == nil {
		return model.Page[model.FeedEvent]{}, fmt.Errorf("feed repository is not configured")
	}

	following, err := s.repo.FollowingIDs(ctx, userID)
	if err != nil {
		return model.Page[model.FeedEvent]{}, fmt.Errorf("list following: %w", err)
	}
	actors := append([]string{userID}, following...)
	return s.list(ctx, actors, cursor, limit)
}

func (s *Service) GlobalFeed(ctx context.Context, cursor string, limit int) (model.Page[model.FeedEvent], error) {
	if s.repo == nil {
		return model.Page[model.FeedEvent]{}, fmt.Errorf("feed repository is not configured")
	}
	return s.list(ctx, nil, cursor, limit)
}

func (s *Service) UserEvents(ctx context.Context, userID, cursor string, limit int) (model.Page[model.FeedEvent], error) {
	if s.repo == nil {
		return model.Page[model.FeedEvent]{}, fmt.Errorf("feed repository is not configured")
	}
	return s.list(ctx, []string{userID}, cursor, limit)
}

func (s *Service) list(ctx context.Context, actors []string, cursor string, limit int) (model.Page[model.FeedEvent], error) {
	limit = repo.ClampLimit(limit, maxPageSize)
	rows, err := s.repo.ListFeedEvents(ctx, actors, strings.TrimSpace(cursor), limit+1)
	if err != nil {
		return model.Page[model.FeedEvent]{}, fmt.Errorf("list feed events: %w", err)
	}
	return model.NewPage(rows, limit, eventID), nil
}

func eventID(e model.FeedEvent) string { return e.ID }
