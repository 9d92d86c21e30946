package reputation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/domain/rules"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
	"github.com/LURY-TMP/matzon-platform/internal/services/effects"
)

const (
	recentEventsLimit = 20

	EventUpdated      = "reputation:updated"
	EventTrustChanged = "reputation:trust_changed"
)

type UserStore interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	LockUser(ctx context.Context, id string) (model.User, error)
	IncrementReputation(ctx context.Context, id string, delta float64, countReport bool) (model.User, error)
	SetTrustLevel(ctx context.Context, id string, level enums.TrustLevel) error
	OverwriteReputation(ctx context.Context, id string, score float64, level enums.TrustLevel) error
}

type EventStore interface {
	InsertReputationEvent(ctx context.Context, e model.ReputationEvent) (model.ReputationEvent, error)
	ListReputationEvents(ctx context.Context, userID string, limit int) ([]model.ReputationEvent, error)
	ReputationBreakdown(ctx context.Context, userID string) ([]model.ReputationBreakdown, error)
	SumReputation(ctx context.Context, userID string) (float64, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry model.AuditLog) (model.AuditLog, error)
}

type Dependencies struct {
	Tx         repo.Transactor
	Users      UserStore
	Events     EventStore
	Audit      AuditRecorder
	Dispatcher *effects.Dispatcher
	Rules      rules.Reputation
	Logger     *zap.Logger
}

type Service struct {
	tx         repo.Transactor
	users      UserStore
	events     EventStore
	audit      AuditRecorder
	dispatcher *effects.Dispatcher
	rules      rules.Reputation
	logger     *zap.Logger
	now        func() time.Time
}

type AddEventInput struct {
	UserID   string
	Type     enums.ReputationEventType
	ActorID  *string
	Reason   *string
	Metadata map[string]any
}

type EventResult struct {
	Event           model.ReputationEvent `json:"event"`
	ReputationScore float64               `json:"reputation_score"`
	TrustLevel      enums.TrustLevel      `json:"trust_level"`
}

type UserReputation struct {
	ReputationScore float64                     `json:"reputation_score"`
	TrustLevel      enums.TrustLevel            `json:"trust_level"`
	ReportsReceived int                         `json:"reports_received"`
	RecentEvents    []model.ReputationEvent     `json:"recent_events"`
	Breakdown       []model.ReputationBreakdown `json:"breakdown"`
}

type FollowCapacity struct {
	Allowed bool `json:"allowed"`
	Limit   int  `json:"limit"`
	Current int  `json:"current"`
}

type Recalculation struct {
	ReputationScore float64          `json:"reputation_score"`
	TrustLevel      enums.TrustLevel `json:"trust_level"`
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tx:         deps.Tx,
		users:      deps.Users,
		events:     deps.Events,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		rules:      deps.Rules,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) CalculateTrustLevel(score float64) enums.TrustLevel {
	return s.rules.TrustLevel(score)
}

// AddEvent applies one event in its own transaction and dispatches the
// resulting pushes after commit. A nil result with a nil error means the
// event type carries no value and nothing was written.
func (s *Service) AddEvent(ctx context.Context, input AddEventInput) (*EventResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var (
		result *EventResult
		batch  effects.Batch
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		result, batch, err = s.ApplyEvent(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, batch)
	return result, nil
}

// ApplyEvent makes the same decision as AddEvent inside the caller's
// transaction and returns the effects instead of running them.
func (s *Service) ApplyEvent(ctx context.Context, input AddEventInput) (*EventResult, effects.Batch, error) {
	var batch effects.Batch
	if err := s.ready(); err != nil {
		return nil, batch, err
	}

	value := s.rules.EventValue(input.Type)
	if value == 0 {
		return nil, batch, nil
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, batch, apperr.BadRequest("User id is required")
	}

	var (
		result    *EventResult
		fromLevel enums.TrustLevel
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		before, err := s.users.LockUser(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.NotFound("User not found")
			}
			return fmt.Errorf("lock user: %w", err)
		}

		event, err := s.events.InsertReputationEvent(ctx, model.ReputationEvent{
			UserID:   input.UserID,
			ActorID:  input.ActorID,
			Type:     input.Type,
			Value:    value,
			Reason:   input.Reason,
			Metadata: input.Metadata,
		})
		if err != nil {
			return fmt.Errorf("insert reputation event: %w", err)
		}

		after, err := s.users.IncrementReputation(ctx, input.UserID, value, input.Type == enums.ReputationReportReceived)
		if err != nil {
			return fmt.Errorf("increment reputation: %w", err)
		}

		level := s.rules.TrustLevel(after.ReputationScore)
		now := s.now().UTC()
		if level != before.TrustLevel {
			if err := s.users.SetTrustLevel(ctx, input.UserID, level); err != nil {
				return fmt.Errorf("set trust level: %w", err)
			}
			batch.Push(input.UserID, EventTrustChanged, map[string]any{
				"oldLevel":        before.TrustLevel,
				"newLevel":        level,
				"reputationScore": after.ReputationScore,
				"timestamp":       now,
			})
			fromLevel = before.TrustLevel
		}

		batch.Push(input.UserID, EventUpdated, map[string]any{
			"type":       input.Type,
			"value":      value,
			"newScore":   after.ReputationScore,
			"trustLevel": level,
			"timestamp":  now,
		})

		result = &EventResult{
			Event:           event,
			ReputationScore: after.ReputationScore,
			TrustLevel:      level,
		}
		return nil
	})
	if err != nil {
		return nil, effects.Batch{}, err
	}

	eventsApplied.WithLabelValues(string(input.Type)).Inc()
	if fromLevel != "" {
		trustChanges.WithLabelValues(string(fromLevel), string(result.TrustLevel)).Inc()
	}
	s.logger.Info("reputation event applied",
		zap.String("user_id", input.UserID),
		zap.String("type", string(input.Type)),
		zap.Float64("value", value),
		zap.Float64("score", result.ReputationScore),
		zap.String("trust_level", string(result.TrustLevel)),
	)
	return result, batch, nil
}

// GetUserReputation returns nil when the user does not exist.
func (s *Service) GetUserReputation(ctx context.Context, userID string) (*UserReputation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	recent, err := s.events.ListReputationEvents(ctx, userID, recentEventsLimit)
	if err != nil {
		return nil, fmt.Errorf("list reputation events: %w", err)
	}
	breakdown, err := s.events.ReputationBreakdown(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reputation breakdown: %w", err)
	}
	if recent == nil {
		recent = []model.ReputationEvent{}
	}
	if breakdown == nil {
		breakdown = []model.ReputationBreakdown{}
	}

	return &UserReputation{
		ReputationScore: user.ReputationScore,
		TrustLevel:      user.TrustLevel,
		ReportsReceived: user.ReportsReceived,
		RecentEvents:    recent,
		Breakdown:       breakdown,
	}, nil
}

// GetFollowLimit falls back to the NEW limit when the user is missing.
func (s *Service) GetFollowLimit(ctx context.Context, userID string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return s.rules.FollowLimit(enums.TrustLevelNew), nil
		}
		return 0, fmt.Errorf("get user: %w", err)
	}
	return s.rules.FollowLimit(user.TrustLevel), nil
}

// CanFollow compares the cached following count against the tier limit.
func (s *Service) CanFollow(ctx context.Context, userID string) (FollowCapacity, error) {
	if err := s.ready(); err != nil {
		return FollowCapacity{}, err
	}

	level := enums.TrustLevelNew
	current := 0
	user, err := s.users.GetUser(ctx, userID)
	switch {
	case err == nil:
		level = user.TrustLevel
		current = user.Following
	case !errors.Is(err, repo.ErrNotFound):
		return FollowCapacity{}, fmt.Errorf("get user: %w", err)
	}

	limit := s.rules.FollowLimit(level)
	return FollowCapacity{Allowed: current < limit, Limit: limit, Current: current}, nil
}

// RecalculateReputation overwrites the score with the sum of the user's event
// history. It sends no realtime events. A non-empty actorID records a
// REPUTATION_RECALC audit entry.
func (s *Service) RecalculateReputation(ctx context.Context, userID, actorID string) (Recalculation, error) {
	if err := s.ready(); err != nil {
		return Recalculation{}, err
	}

	var out Recalculation
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.users.LockUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.NotFound("User not found")
			}
			return fmt.Errorf("lock user: %w", err)
		}

		sum, err := s.events.SumReputation(ctx, userID)
		if err != nil {
			return fmt.Errorf("sum reputation: %w", err)
		}
		level := s.rules.TrustLevel(sum)
		if err := s.users.OverwriteReputation(ctx, userID, sum, level); err != nil {
			return fmt.Errorf("overwrite reputation: %w", err)
		}

		if actorID != "" && s.audit != nil {
			if _, err := s.audit.Record(ctx, model.AuditLog{
				ActorID:  actorID,
				Action:   enums.AuditReputationRecalc,
				TargetID: &userID,
				Details: map[string]any{
					"oldScore": user.ReputationScore,
					"newScore": sum,
					"oldLevel": user.TrustLevel,
					"newLevel": level,
				},
			}); err != nil {
				return err
			}
		}

		out = Recalculation{ReputationScore: sum, TrustLevel: level}
		return nil
	})
	if err != nil {
		return Recalculation{}, err
	}

	recalculations.Inc()
	s.logger.Info("reputation recalculated",
		zap.String("user_id", userID),
		zap.Float64("score", out.ReputationScore),
		zap.String("trust_level", string(out.TrustLevel)),
	)
	return out, nil
}

func (s *Service) ready() error {
	if s.tx == nil || s.users == nil || s.events == nil {
		return fmt.Errorf("reputation service dependencies are not configured")
	}
	return nil
}
