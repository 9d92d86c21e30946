package memory

import (
	"context"
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
)

func (s *Store) InsertAuditLog(ctx context.Context, a model.AuditLog) (model.AuditLog, error) {
	err := s.do(ctx, func(st *state) error {
		id, now := s.stamp(st, a.ID)
		a.ID = id
		a.CreatedAt = now
		if a.Details == nil {
			a.Details = map[string]any{}
		}
		st.audit = append(st.audit, a)
		return nil
	})
	return a, err
}

func (s *Store) ListAuditLogs(ctx context.Context, f model.AuditFilter, cursor string, limit int) ([]model.AuditLog, error) {
	var out []model.AuditLog
	err := s.do(ctx, func(st *state) error {
		var matched []model.AuditLog
		for _, a := range st.audit {
			if f.ActorID != "" && a.ActorID != f.ActorID {
				continue
			}
			if f.TargetID != "" && (a.TargetID == nil || *a.TargetID != f.TargetID) {
				continue
			}
			if f.Action != "" && a.Action != f.Action {
				continue
			}
			matched = append(matched, a)
		}
		newestFirst(st, matched, auditID, auditCreatedAt)
		out = pageAfter(matched, cursor, limit, auditID)
		return nil
	})
	return out, err
}

func auditID(a model.AuditLog) string           { return a.ID }
func auditCreatedAt(a model.AuditLog) time.Time { return a.CreatedAt }
