package moderation

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
	"github.com/LURY-TMP/matzon-platform/internal/domain/rules"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/validate"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
	"github.com/LURY-TMP/matzon-platform/internal/services/effects"
	"github.com/LURY-TMP/matzon-platform/internal/services/reputation"
)

const (
	penaltyReportThreshold = 5
	penaltyDuration        = 7 * 24 * time.Hour
	maxDescriptionLen      = 1000
	maxReasonLen           = 500
	maxPageLimit           = 100

	// SystemActorID signs actions taken by background jobs.
	SystemActorID = "system"

	EventRestricted = "moderation:restricted"
	EventBanned     = "moderation:banned"
	EventSuspended  = "moderation:suspended"
	EventReinstated = "moderation:reinstated"
)

var errDuplicatePending = apperr.Conflict("You already have a pending report against this user")

type UserStore interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	LockUser(ctx context.Context, id string) (model.User, error)
	SetUserStatus(ctx context.Context, id string, status enums.UserStatus) error
	SetRestrictedUntil(ctx context.Context, id string, until *time.Time) error
	ListExpiredSuspensions(ctx context.Context, now time.Time, limit int) ([]model.User, error)
}

type ReportStore interface {
	InsertReport(ctx context.Context, r model.Report) (model.Report, error)
	LockReport(ctx context.Context, id string) (model.Report, error)
	ResolveReport(ctx context.Context, id string, res model.ReportResolution) (model.Report, error)
	CountReportsFiledSince(ctx context.Context, reporterID string, since time.Time) (int, error)
	HasPendingReport(ctx context.Context, reporterID, targetUserID string) (bool, error)
	ListReports(ctx context.Context, statuses []enums.ReportStatus, cursor string, limit int) ([]model.Report, error)
	CountReports(ctx context.Context, statuses ...enums.ReportStatus) (int, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, entry model.AuditLog) (model.AuditLog, error)
}

// ReputationApplier runs a reputation event inside the caller's transaction.
type ReputationApplier interface {
	ApplyEvent(ctx context.Context, input reputation.AddEventInput) (*reputation.EventResult, effects.Batch, error)
}

type Dependencies struct {
	Tx         repo.Transactor
	Users      UserStore
	Reports    ReportStore
	Audit      AuditRecorder
	Reputation ReputationApplier
	Dispatcher *effects.Dispatcher
	Rules      rules.Reputation
	// Location defines the calendar day for report quotas; nil means UTC.
	Location *time.Location
	Logger   *zap.Logger
}

type Service struct {
	tx         repo.Transactor
	users      UserStore
	reports    ReportStore
	audit      AuditRecorder
	reputation ReputationApplier
	dispatcher *effects.Dispatcher
	rules      rules.Reputation
	loc        *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

type CreateReportInput struct {
	ReporterID   string
	TargetUserID *string
	TargetType   enums.ReportTargetType
	TargetID     *string
	Reason       enums.ReportReason
	Description  *string
}

type ResolveReportInput struct {
	ReportID   string
	ResolvedBy string
	Status     enums.ReportStatus
	Note       *string
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		tx:         deps.Tx,
		users:      deps.Users,
		reports:    deps.Reports,
		audit:      deps.Audit,
		reputation: deps.Reputation,
		dispatcher: deps.Dispatcher,
		rules:      deps.Rules,
		loc:        loc,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) CreateReport(ctx context.Context, input CreateReportInput) (model.Report, error) {
	if err := s.ready(); err != nil {
		return model.Report{}, err
	}
	if err := validateReportInput(input); err != nil {
		return model.Report{}, err
	}
	if input.TargetUserID != nil && *input.TargetUserID == input.ReporterID {
		return model.Report{}, apperr.BadRequest("Cannot report yourself")
	}

	var (
		report model.Report
		batch  effects.Batch
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Locking the reporter serializes the daily quota count.
		reporter, err := s.users.LockUser(ctx, input.ReporterID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("lock reporter: %w", err)
		}
		if err != nil || reporter.Status == enums.UserStatusBanned {
			return apperr.Forbidden("Cannot file reports")
		}

		quota := s.rules.ReportQuota(reporter.TrustLevel)
		filed, err := s.reports.CountReportsFiledSince(ctx, input.ReporterID, rules.StartOfDay(s.now(), s.loc))
		if err != nil {
			return fmt.Errorf("count reports filed today: %w", err)
		}
		if filed >= quota {
			return apperr.Forbidden("Daily report limit reached (%d). Resets at %s. Higher trust levels allow more reports.",
				quota, rules.NextResetAt(s.now(), s.loc).Format(time.RFC3339))
		}

		if input.TargetUserID != nil {
			pending, err := s.reports.HasPendingReport(ctx, input.ReporterID, *input.TargetUserID)
			if err != nil {
				return fmt.Errorf("check pending report: %w", err)
			}
			if pending {
				return errDuplicatePending
			}
			if _, err := s.users.GetUser(ctx, *input.TargetUserID); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return apperr.NotFound("Target user not found")
				}
				return fmt.Errorf("get target user: %w", err)
			}
		}

		report, err = s.reports.InsertReport(ctx, model.Report{
			ReporterID:   input.ReporterID,
			TargetUserID: input.TargetUserID,
			TargetType:   input.TargetType,
			TargetID:     input.TargetID,
			Reason:       input.Reason,
			Description:  input.Description,
			Status:       enums.ReportStatusPending,
		})
		if err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return errDuplicatePending
			}
			return fmt.Errorf("insert report: %w", err)
		}

		if _, err := s.audit.Record(ctx, model.AuditLog{
			ActorID:  input.ReporterID,
			Action:   enums.AuditReportCreated,
			TargetID: report.AuditTarget(),
			Details: map[string]any{
				"reportId":   report.ID,
				"reason":     report.Reason,
				"targetType": report.TargetType,
			},
		}); err != nil {
			return err
		}

		if input.TargetUserID != nil {
			reason := "Report: " + string(input.Reason)
			_, repBatch, err := s.reputation.ApplyEvent(ctx, reputation.AddEventInput{
				UserID:  *input.TargetUserID,
				Type:    enums.ReputationReportReceived,
				ActorID: &input.ReporterID,
				Reason:  &reason,
			})
			if err != nil {
				return err
			}
			batch.Append(repBatch)
		}
		return nil
	})
	if err != nil {
		return model.Report{}, err
	}

	s.dispatcher.Dispatch(ctx, batch)
	reportsCreated.WithLabelValues(string(report.Reason)).Inc()
	s.logger.Info("report created",
		zap.String("report_id", report.ID),
		zap.String("reporter_id", report.ReporterID),
		zap.String("reason", string(report.Reason)),
	)
	return report, nil
}

func (s *Service) ResolveReport(ctx context.Context, input ResolveReportInput) (model.Report, error) {
	if err := s.ready(); err != nil {
		return model.Report{}, err
	}
	if input.Status != enums.ReportStatusConfirmed && input.Status != enums.ReportStatusRejected {
		return model.Report{}, apperr.BadRequest("Status must be CONFIRMED or REJECTED")
	}
	if !validate.Required(input.ResolvedBy) {
		return model.Report{}, apperr.BadRequest("Resolver is required")
	}
	if input.Note != nil && !validate.MaxLen(*input.Note, maxDescriptionLen) {
		return model.Report{}, apperr.BadRequest("Note must be at most %d characters", maxDescriptionLen)
	}

	var (
		updated model.Report
		batch   effects.Batch
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		report, err := s.reports.LockReport(ctx, input.ReportID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return apperr.NotFound("Report not found")
			}
			return fmt.Errorf("lock report: %w", err)
		}
		if !report.Status.Open() {
			return apperr.BadRequest("Report already resolved")
		}

		updated, err = s.reports.ResolveReport(ctx, report.ID, model.ReportResolution{
			Status:     input.Status,
			ResolvedBy: input.ResolvedBy,
			Note:       input.Note,
			ResolvedAt: s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("resolve report: %w", err)
		}

		details := map[string]any{
			"reportId": report.ID,
			"status":   input.Status,
		}
		if input.Note != nil {
			details["note"] = *input.Note
		}
		if _, err := s.audit.Record(ctx, model.AuditLog{
			ActorID:  input.ResolvedBy,
			Action:   enums.AuditReportResolved,
			TargetID: report.AuditTarget(),
			Details:  details,
		}); err != nil {
			return err
		}

		if report.TargetUserID == nil {
			return nil
		}

		if input.Status == enums.ReportStatusConfirmed {
			penalty, err := s.applyPenalty(ctx, *report.TargetUserID, input.ResolvedBy, string(report.Reason), &report.ID)
			if err != nil {
				return err
			}
			batch.Append(penalty)
		}

		batch.Notify(model.NewNotification{
			UserID:  report.ReporterID,
			Type:    enums.NotificationSystemAnnouncement,
			Title:   "Report Update",
			Message: resolutionMessage(input.Status),
			Payload: map[string]any{"reportId": report.ID, "status": input.Status},
		})
		return nil
	})
	if err != nil {
		return model.Report{}, err
	}

	s.dispatcher.Dispatch(ctx, batch)
	reportsResolved.WithLabelValues(string(updated.Status)).Inc()
	s.logger.Info("report resolved",
		zap.String("report_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.String("resolved_by", input.ResolvedBy),
	)
	return updated, nil
}

func resolutionMessage(status enums.ReportStatus) string {
	if status == enums.ReportStatusConfirmed {
		return "Your report has been reviewed and action was taken. Thank you."
	}
	return "Your report has been reviewed. No action was required at this time."
}

// applyPenalty records the validated report and restricts the account for
// seven days when the user has at least five reports and a negative score.
// It fires on every qualifying confirmation, extending any running
// restriction.
func (s *Service) applyPenalty(ctx context.Context, userID, adminID, reason string, reportID *string) (effects.Batch, error) {
	var batch effects.Batch

	eventReason := "Confirmed: " + reason
	metadata := map[string]any{}
	if reportID != nil {
		metadata["reportId"] = *reportID
	}
	_, repBatch, err := s.reputation.ApplyEvent(ctx, reputation.AddEventInput{
		UserID:   userID,
		Type:     enums.ReputationReportValidated,
		ActorID:  &adminID,
		Reason:   &eventReason,
		Metadata: metadata,
	})
	if err != nil {
		return batch, err
	}
	batch.Append(repBatch)

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return batch, fmt.Errorf("get penalized user: %w", err)
	}
	if user.ReportsReceived < penaltyReportThreshold || user.ReputationScore >= 0 {
		return batch, nil
	}

	until := s.now().UTC().Add(penaltyDuration)
	if err := s.users.SetRestrictedUntil(ctx, userID, &until); err != nil {
		return batch, fmt.Errorf("set restriction: %w", err)
	}

	details := map[string]any{"reason": reason, "duration": "7d"}
	if reportID != nil {
		details["reportId"] = *reportID
	}
	if _, err := s.audit.Record(ctx, model.AuditLog{
		ActorID:  adminID,
		Action:   enums.AuditPenaltyApplied,
		TargetID: &userID,
		Details:  details,
	}); err != nil {
		return batch, err
	}

	batch.Notify(model.NewNotification{
		UserID:  userID,
		Type:    enums.NotificationSystemAnnouncement,
		Title:   "Account Restricted",
		Message: "Your account has been temporarily restricted due to repeated violations.",
		Payload: map[string]any{"restrictedUntil": until},
	})
	batch.Push(userID, EventRestricted, map[string]any{
		"reason":          reason,
		"restrictedUntil": until,
	})
	batch.Alert(fmt.Sprintf("Penalty applied: user %s (%s) restricted until %s for %s",
		user.Username, user.ID, until.Format(time.RFC3339), reason))

	penaltiesApplied.Inc()
	s.logger.Info("penalty applied",
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.Time("restricted_until", until),
	)
	return batch, nil
}

func (s *Service) BanUser(ctx context.Context, userID, adminID, reason string) (model.User, error) {
	if err := s.ready(); err != nil {
		return model.User{}, err
	}
	reason = strings.TrimSpace(reason)
	if err := validateActionReason(reason); err != nil {
		return model.User{}, err
	}

	var (
		user  model.User
		batch effects.Batch
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockTarget(ctx, userID); err != nil {
			return err
		}
		if err := s.users.SetUserStatus(ctx, userID, enums.UserStatusBanned); err != nil {
			return fmt.Errorf("set user status: %w", err)
		}
		if _, err := s.audit.Record(ctx, model.AuditLog{
			ActorID:  adminID,
			Action:   enums.AuditUserBanned,
			TargetID: &userID,
			Details:  map[string]any{"reason": reason},
		}); err != nil {
			return err
		}

		var err error
		user, err = s.users.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("get banned user: %w", err)
		}

		batch.Push(userID, EventBanned, map[string]any{"reason": reason})
		batch.Alert(fmt.Sprintf("User banned: %s (%s) by %s: %s", user.Username, user.ID, adminID, reason))
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	s.dispatcher.Dispatch(ctx, batch)
	accountActions.WithLabelValues("ban").Inc()
	s.logger.Info("user banned", zap.String("user_id", userID), zap.String("admin_id", adminID))
	return user, nil
}

func (s *Service) SuspendUser(ctx context.Context, userID, adminID, reason string, days int) (model.User, error) {
	if err := s.ready(); err != nil {
		return model.User{}, err
	}
	if days < 1 {
		return model.User{}, apperr.BadRequest("Suspension must last at least 1 day")
	}
	reason = strings.TrimSpace(reason)
	if err := validateActionReason(reason); err != nil {
		return model.User{}, err
	}

	var (
		user  model.User
		batch effects.Batch
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.lockTarget(ctx, userID); err != nil {
			return err
		}

		until := s.now().UTC().Add(time.Duration(days) * 24 * time.Hour)
		if err := s.users.SetUserStatus(ctx, userID, enums.UserStatusSuspended); err != nil {
			return fmt.Errorf("set user status: %w", err)
		}
		if err := s.users.SetRestrictedUntil(ctx, userID, &until); err != nil {
			return fmt.Errorf("set restriction: %w", err)
		}
		if _, err := s.audit.Record(ctx, model.AuditLog{
			ActorID:  adminID,
			Action:   enums.AuditUserSuspended,
			TargetID: &userID,
			Details:  map[string]any{"reason": reason, "days": days},
		}); err != nil {
			return err
		}

		var err error
		user, err = s.users.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("get suspended user: %w", err)
		}

		batch.Notify(model.NewNotification{
			UserID:  userID,
			Type:    enums.NotificationSystemAnnouncement,
			Title:   "Account Suspended",
			Message: fmt.Sprintf("Your account has been suspended for %d days: %s", days, reason),
			Payload: map[string]any{"days": days, "reason": reason},
		})
		batch.Push(userID, EventSuspended, map[string]any{
			"reason":          reason,
			"days":            days,
			"restrictedUntil": until,
		})
		batch.Alert(fmt.Sprintf("User suspended: %s (%s) for %dd by %s: %s", user.Username, user.ID, days, adminID, reason))
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	s.dispatcher.Dispatch(ctx, batch)
	accountActions.WithLabelValues("suspend").Inc()
	s.logger.Info("user suspended",
		zap.String("user_id", userID),
		zap.String("admin_id", adminID),
		zap.Int("days", days),
	)
	return user, nil
}

// ReinstateUser returns the account to ACTIVE from any status. Score and
// report history are kept.
func (s *Service) ReinstateUser(ctx context.Context, userID, adminID string) (model.User, error) {
	if err := s.ready(); err != nil {
		return model.User{}, err
	}

	var (
		user  model.User
		batch effects.Batch
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, batch, err = s.reinstate(ctx, userID, adminID)
		return err
	})
	if err != nil {
		return model.User{}, err
	}

	s.dispatcher.Dispatch(ctx, batch)
	accountActions.WithLabelValues("reinstate").Inc()
	s.logger.Info("user reinstated", zap.String("user_id", userID), zap.String("admin_id", adminID))
	return user, nil
}

func (s *Service) reinstate(ctx context.Context, userID, adminID string) (model.User, effects.Batch, error) {
	var batch effects.Batch

	before, err := s.users.LockUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, batch, apperr.NotFound("User not found")
		}
		return model.User{}, batch, fmt.Errorf("lock user: %w", err)
	}

	if err := s.users.SetUserStatus(ctx, userID, enums.UserStatusActive); err != nil {
		return model.User{}, batch, fmt.Errorf("set user status: %w", err)
	}
	if err := s.users.SetRestrictedUntil(ctx, userID, nil); err != nil {
		return model.User{}, batch, fmt.Errorf("clear restriction: %w", err)
	}
	if _, err := s.audit.Record(ctx, model.AuditLog{
		ActorID:  adminID,
		Action:   enums.AuditUserReinstated,
		TargetID: &userID,
		Details:  map[string]any{"previousStatus": before.Status},
	}); err != nil {
		return model.User{}, batch, err
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, batch, fmt.Errorf("get reinstated user: %w", err)
	}
	batch.Push(userID, EventReinstated, map[string]any{"previousStatus": before.Status})
	return user, batch, nil
}

// ExpireSuspensions reinstates suspended users whose restriction has ended,
// signing each action as the system actor. It returns how many were lifted.
func (s *Service) ExpireSuspensions(ctx context.Context, limit int) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	expired, err := s.users.ListExpiredSuspensions(ctx, s.now().UTC(), limit)
	if err != nil {
		return 0, fmt.Errorf("list expired suspensions: %w", err)
	}

	lifted := 0
	for _, u := range expired {
		if _, err := s.ReinstateUser(ctx, u.ID, SystemActorID); err != nil {
			s.logger.Warn("suspension expiry failed", zap.String("user_id", u.ID), zap.Error(err))
			continue
		}
		lifted++
	}
	return lifted, nil
}

// GetPendingReports pages PENDING and REVIEWING reports, newest first.
func (s *Service) GetPendingReports(ctx context.Context, cursor string, limit int) (model.Page[model.Report], error) {
	if err := s.ready(); err != nil {
		return model.Page[model.Report]{}, err
	}
	limit = repo.ClampLimit(limit, maxPageLimit)

	rows, err := s.reports.ListReports(ctx, []enums.ReportStatus{enums.ReportStatusPending, enums.ReportStatusReviewing}, strings.TrimSpace(cursor), limit+1)
	if err != nil {
		return model.Page[model.Report]{}, fmt.Errorf("list pending reports: %w", err)
	}
	return model.NewPage(rows, limit, reportID), nil
}

func (s *Service) GetReportStats(ctx context.Context) (model.ReportStats, error) {
	if err := s.ready(); err != nil {
		return model.ReportStats{}, err
	}

	var stats model.ReportStats
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, statuses ...enums.ReportStatus) {
		g.Go(func() error {
			n, err := s.reports.CountReports(gctx, statuses...)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	count(&stats.Pending, enums.ReportStatusPending)
	count(&stats.Confirmed, enums.ReportStatusConfirmed)
	count(&stats.Rejected, enums.ReportStatusRejected)
	count(&stats.Total)

	if err := g.Wait(); err != nil {
		return model.ReportStats{}, fmt.Errorf("count reports: %w", err)
	}
	return stats, nil
}

func (s *Service) lockTarget(ctx context.Context, userID string) error {
	if _, err := s.users.LockUser(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return fmt.Errorf("lock user: %w", err)
	}
	return nil
}

func validateReportInput(input CreateReportInput) error {
	if !validate.Required(input.ReporterID) {
		return apperr.BadRequest("Reporter is required")
	}
	if !input.TargetType.Valid() {
		return apperr.BadRequest("Unknown report target type: %s", input.TargetType)
	}
	if !input.Reason.Valid() {
		return apperr.BadRequest("Unknown report reason: %s", input.Reason)
	}
	if input.TargetUserID == nil && input.TargetID == nil {
		return apperr.BadRequest("Report target is required")
	}
	if input.Description != nil && !validate.MaxLen(*input.Description, maxDescriptionLen) {
		return apperr.BadRequest("Description must be at most %d characters", maxDescriptionLen)
	}
	return nil
}

func validateActionReason(reason string) error {
	if !validate.Required(reason) {
		return apperr.BadRequest("Reason is required")
	}
	if !validate.MaxLen(reason, maxReasonLen) {
		return apperr.BadRequest("Reason must be at most %d characters", maxReasonLen)
	}
	return nil
}

func reportID(r model.Report) string { return r.ID }
