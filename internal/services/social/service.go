package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
	"github.com/LURY-TMP/matzon-platform/internal/services/effects"
	"github.com/LURY-TMP/matzon-platform/internal/services/reputation"
)

const (
	EventFollowed   = "social:followed"
	EventUnfollowed = "social:unfollowed"

	maxPageLimit = 100
)

var errAlreadyFollowing = apperr.Conflict("Already following this user")

type UserStore interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	LockUser(ctx context.Context, id string) (model.User, error)
	AdjustFollowCounts(ctx context.Context, followerID, followingID string, delta int) error
}

type FollowStore interface {
	InsertFollow(ctx context.Context, followerID, followingID string) (model.Follow, error)
	DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error)
	FollowExists(ctx context.Context, followerID, followingID string) (bool, error)
	ListFollowers(ctx context.Context, userID, cursor string, limit int) ([]model.FollowEdge, error)
	ListFollowing(ctx context.Context, userID, cursor string, limit int) ([]model.FollowEdge, error)
}

type ReputationEngine interface {
	CanFollow(ctx context.Context, userID string) (reputation.FollowCapacity, error)
	ApplyEvent(ctx context.Context, input reputation.AddEventInput) (*reputation.EventResult, effects.Batch, error)
}

type Dependencies struct {
	Tx         repo.Transactor
	Users      UserStore
	Follows    FollowStore
	Reputation ReputationEngine
	Dispatcher *effects.Dispatcher
	Logger     *zap.Logger
}

type Service struct {
	tx         repo.Transactor
	users      UserStore
	follows    FollowStore
	reputation ReputationEngine
	dispatcher *effects.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tx:         deps.Tx,
		users:      deps.Users,
		follows:    deps.Follows,
		reputation: deps.Reputation,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Follow creates the edge, bumps both cached counters and grants the
// follow reputation events in one transaction.
func (s *Service) Follow(ctx context.Context, followerID, followingID string) (model.Follow, error) {
	if err := s.ready(); err != nil {
		return model.Follow{}, err
	}
	if followerID == followingID {
		return model.Follow{}, apperr.BadRequest("Cannot follow yourself")
	}

	var (
		follow model.Follow
		batch  effects.Batch
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// The follower row lock serializes concurrent follows against the limit.
		follower, err := s.users.LockUser(ctx, followerID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.NotFound("User not found")
			}
			return fmt.Errorf("lock follower: %w", err)
		}

		capacity, err := s.reputation.CanFollow(ctx, followerID)
		if err != nil {
			return err
		}
		if !capacity.Allowed {
			return apperr.Forbidden("Follow limit reached (%d/%d)", capacity.Current, capacity.Limit)
		}

		target, err := s.users.GetUser(ctx, followingID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("get target user: %w", err)
		}
		if err != nil || target.Status == enums.UserStatusBanned {
			return apperr.NotFound("User not found")
		}

		exists, err := s.follows.FollowExists(ctx, followerID, followingID)
		if err != nil {
			return fmt.Errorf("check follow: %w", err)
		}
		if exists {
			return errAlreadyFollowing
		}

		follow, err = s.follows.InsertFollow(ctx, followerID, followingID)
		if err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return errAlreadyFollowing
			}
			return fmt.Errorf("insert follow: %w", err)
		}
		if err := s.users.AdjustFollowCounts(ctx, followerID, followingID, 1); err != nil {
			return fmt.Errorf("adjust follow counts: %w", err)
		}

		for _, ev := range []reputation.AddEventInput{
			{UserID: followingID, Type: enums.ReputationFollowReceived, ActorID: &followerID},
			{UserID: followerID, Type: enums.ReputationFollowGiven, ActorID: &followingID},
		} {
			_, repBatch, err := s.reputation.ApplyEvent(ctx, ev)
			if err != nil {
				return err
			}
			batch.Append(repBatch)
		}

		batch.Notify(model.NewNotification{
			UserID:  followingID,
			Type:    enums.NotificationFollowNew,
			Title:   "New Follower",
			Message: follower.Username + " started following you",
			ActorID: &followerID,
			Payload: map[string]any{"followerId": followerID, "followerUsername": follower.Username},
		})
		batch.Push(followingID, EventFollowed, map[string]any{
			"followerId":       followerID,
			"followerUsername": follower.Username,
			"timestamp":        s.now().UTC(),
		})
		batch.Feed(model.NewFeedEvent{
			ActorID: followerID,
			Type:    enums.FeedUserFollowed,
			Title:   follower.Username + " followed " + target.Username,
			Summary: follower.Username + " started following " + target.Username,
			Payload: map[string]any{"followingId": followingID, "followingUsername": target.Username},
		})
		return nil
	})
	if err != nil {
		return model.Follow{}, err
	}

	s.dispatcher.Dispatch(ctx, batch)
	s.logger.Info("user followed", zap.String("follower_id", followerID), zap.String("following_id", followingID))
	return follow, nil
}

// Unfollow removes the edge and decrements the counters. Reputation granted
// by the follow is kept.
func (s *Service) Unfollow(ctx context.Context, followerID, followingID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if followerID == followingID {
		return apperr.BadRequest("Cannot unfollow yourself")
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		deleted, err := s.follows.DeleteFollow(ctx, followerID, followingID)
		if err != nil {
			return fmt.Errorf("delete follow: %w", err)
		}
		if !deleted {
			return apperr.NotFound("Not following this user")
		}
		if err := s.users.AdjustFollowCounts(ctx, followerID, followingID, -1); err != nil {
			return fmt.Errorf("adjust follow counts: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var batch effects.Batch
	batch.Push(followingID, EventUnfollowed, map[string]any{
		"followerId": followerID,
		"timestamp":  s.now().UTC(),
	})
	s.dispatcher.Dispatch(ctx, batch)
	s.logger.Info("user unfollowed", zap.String("follower_id", followerID), zap.String("following_id", followingID))
	return nil
}

func (s *Service) Followers(ctx context.Context, userID, cursor string, limit int) (model.Page[model.FollowEdge], error) {
	if err := s.ready(); err != nil {
		return model.Page[model.FollowEdge]{}, err
	}
	limit = repo.ClampLimit(limit, maxPageLimit)
	rows, err := s.follows.ListFollowers(ctx, userID, strings.TrimSpace(cursor), limit+1)
	if err != nil {
		return model.Page[model.FollowEdge]{}, fmt.Errorf("list followers: %w", err)
	}
	return model.NewPage(rows, limit, edgeID), nil
}

func (s *Service) Following(ctx context.Context, userID, cursor string, limit int) (model.Page[model.FollowEdge], error) {
	if err := s.ready(); err != nil {
		return model.Page[model.FollowEdge]{}, err
	}
	limit = repo.ClampLimit(limit, maxPageLimit)
	rows, err := s.follows.ListFollowing(ctx, userID, strings.TrimSpace(cursor), limit+1)
	if err != nil {
		return model.Page[model.FollowEdge]{}, fmt.Errorf("list following: %w", err)
	}
	return model.NewPage(rows, limit, edgeID), nil
}

func (s *Service) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	exists, err := s.follows.FollowExists(ctx, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}

func (s *Service) Relationship(ctx context.Context, viewerID, otherID string) (model.Relationship, error) {
	if err := s.ready(); err != nil {
		return model.Relationship{}, err
	}

	var rel model.Relationship
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rel.IsFollowing, err = s.IsFollowing(gctx, viewerID, otherID)
		return err
	})
	g.Go(func() error {
		var err error
		rel.IsFollowedBy, err = s.IsFollowing(gctx, otherID, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Relationship{}, err
	}
	rel.IsMutual = rel.IsFollowing && rel.IsFollowedBy
	return rel, nil
}

func (s *Service) ready() error {
	if s.tx == nil || s.users == nil || s.follows == nil || s.reputation == nil {
		return fmt.Errorf("social service dependencies are not configured")
	}
	return nil
}

func edgeID(e model.FollowEdge) string { return e.ID }
