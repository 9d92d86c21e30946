package memory

import (
	"context"
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

func (s *Store) InsertReport(ctx context.Context, r model.Report) (model.Report, error) {
	err := s.do(ctx, func(st *state) error {
		id, now := s.stamp(st, r.ID)
		r.ID = id
		r.CreatedAt = now
		if r.Status == "" {
			r.Status = enums.ReportStatusPending
		}
		st.reports = append(st.reports, r)
		return nil
	})
	return r, err
}

func (s *Store) LockReport(ctx context.Context, id string) (model.Report, error) {
	var out model.Report
	err := s.do(ctx, func(st *state) error {
		for _, r := range st.reports {
			if r.ID == id {
				out = r
				return nil
			}
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (s *Store) ResolveReport(ctx context.Context, id string, res model.ReportResolution) (model.Report, error) {
	var out model.Report
	err := s.do(ctx, func(st *state) error {
		for i := range st.reports {
			if st.reports[i].ID != id {
				continue
			}
			r := st.reports[i]
			r.Status = res.Status
			r.ResolvedBy = ptr(res.ResolvedBy)
			r.ResolvedNote = res.Note
			r.ResolvedAt = ptr(res.ResolvedAt.UTC())
			st.reports[i] = r
			out = r
			return nil
		}
		return repo.ErrNotFound
	})
	return out, err
}

func (s *Store) CountReportsFiledSince(ctx context.Context, reporterID string, since time.Time) (int, error) {
	count := 0
	err := s.do(ctx, func(st *state) error {
		for _, r := range st.reports {
			if r.ReporterID == reporterID && !r.CreatedAt.Before(since) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (s *Store) HasPendingReport(ctx context.Context, reporterID, targetUserID string) (bool, error) {
	found := false
	err := s.do(ctx, func(st *state) error {
		for _, r := range st.reports {
			if r.ReporterID != reporterID || r.TargetUserID == nil || *r.TargetUserID != targetUserID {
				continue
			}
			if r.Status == enums.ReportStatusPending {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s *Store) ListReports(ctx context.Context, statuses []enums.ReportStatus, cursor string, limit int) ([]model.Report, error) {
	var out []model.Report
	err := s.do(ctx, func(st *state) error {
		var matched []model.Report
		for _, r := range st.reports {
			if statusIn(r.Status, statuses) {
				matched = append(matched, r)
			}
		}
		newestFirst(st, matched, reportID, reportCreatedAt)
		out = pageAfter(matched, cursor, limit, reportID)
		return nil
	})
	return out, err
}

// CountReports counts reports in any of statuses, or all reports when none
// are given.
func (s *Store) CountReports(ctx context.Context, statuses ...enums.ReportStatus) (int, error) {
	count := 0
	err := s.do(ctx, func(st *state) error {
		for _, r := range st.reports {
			if statusIn(r.Status, statuses) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func statusIn(status enums.ReportStatus, statuses []enums.ReportStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func reportID(r model.Report) string           { return r.ID }
func reportCreatedAt(r model.Report) time.Time { return r.CreatedAt }
