package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

const (
	maxPageLimit     = 100
	defaultRecentMax = 50
)

type Store interface {
	InsertAuditLog(ctx context.Context, entry model.AuditLog) (model.AuditLog, error)
	ListAuditLogs(ctx context.Context, filter model.AuditFilter, cursor string, limit int) ([]model.AuditLog, error)
}

// Service is the append-only trail of moderation and admin actions.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Record appends an entry. Called inside a transaction it joins it.
func (s *Service) Record(ctx context.Context, entry model.AuditLog) (model.AuditLog, error) {
	if s.store == nil {
		return model.AuditLog{}, fmt.Errorf("audit store is not configured")
	}
	if strings.TrimSpace(entry.ActorID) == "" {
		return model.AuditLog{}, fmt.Errorf("audit actor is required")
	}
	if !entry.Action.Valid() {
		return model.AuditLog{}, fmt.Errorf("unknown audit action %q", entry.Action)
	}

	out, err := s.store.InsertAuditLog(ctx, entry)
	if err != nil {
		return model.AuditLog{}, fmt.Errorf("record audit entry: %w", err)
	}
	return out, nil
}

func (s *Service) FindByActor(ctx context.Context, actorID, cursor string, limit int) (model.Page[model.AuditLog], error) {
	return s.Query(ctx, model.AuditFilter{ActorID: actorID}, cursor, limit)
}

func (s *Service) FindByTarget(ctx context.Context, targetID, cursor string, limit int) (model.Page[model.AuditLog], error) {
	return s.Query(ctx, model.AuditFilter{TargetID: targetID}, cursor, limit)
}

func (s *Service) FindByAction(ctx context.Context, action enums.AuditAction, cursor string, limit int) (model.Page[model.AuditLog], error) {
	if !action.Valid() {
		return model.Page[model.AuditLog]{}, apperr.BadRequest("Unknown audit action: %s", action)
	}
	return s.Query(ctx, model.AuditFilter{Action: action}, cursor, limit)
}

// Recent returns the newest entries without a cursor.
func (s *Service) Recent(ctx context.Context, limit int) ([]model.AuditLog, error) {
	if s.store == nil {
		return nil, fmt.Errorf("audit store is not configured")
	}
	if limit <= 0 {
		limit = defaultRecentMax
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	rows, err := s.store.ListAuditLogs(ctx, model.AuditFilter{}, "", limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit entries: %w", err)
	}
	if rows == nil {
		rows = []model.AuditLog{}
	}
	return rows, nil
}

func (s *Service) Query(ctx context.Context, filter model.AuditFilter, cursor string, limit int) (model.Page[model.AuditLog], error) {
	if s.store == nil {
		return model.Page[model.AuditLog]{}, fmt.Errorf("audit store is not configured")
	}
	limit = repo.ClampLimit(limit, maxPageLimit)

	rows, err := s.store.ListAuditLogs(ctx, filter, strings.TrimSpace(cursor), limit+1)
	if err != nil {
		return model.Page[model.AuditLog]{}, fmt.Errorf("list audit entries: %w", err)
	}
	return model.NewPage(rows, limit, auditID), nil
}

func auditID(a model.AuditLog) string { return a.ID }
