package memory

import (
	"context"
	"sort"
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
)

func (s *Store) InsertReputationEvent(ctx context.Context, e model.ReputationEvent) (model.ReputationEvent, error) {
	err := s.do(ctx, func(st *state) error {
		id, now := s.stamp(st, e.ID)
		e.ID = id
		e.CreatedAt = now
		if e.Metadata == nil {
			e.Metadata = map[string]any{}
		}
		st.events = append(st.events, e)
		return nil
	})
	return e, err
}

func (s *Store) ListReputationEvents(ctx context.Context, userID string, limit int) ([]model.ReputationEvent, error) {
	var out []model.ReputationEvent
	err := s.do(ctx, func(st *state) error {
		for _, e := range st.events {
			if e.UserID == userID {
				out = append(out, e)
			}
		}
		newestFirst(st, out, eventID, eventCreatedAt)
		return nil
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (s *Store) ReputationBreakdown(ctx context.Context, userID string) ([]model.ReputationBreakdown, error) {
	var out []model.ReputationBreakdown
	err := s.do(ctx, func(st *state) error {
		index := make(map[string]int)
		for _, e := range st.events {
			if e.UserID != userID {
				continue
			}
			i, ok := index[string(e.Type)]
			if !ok {
				i = len(out)
				index[string(e.Type)] = i
				out = append(out, model.ReputationBreakdown{Type: e.Type})
			}
			out[i].TotalValue += e.Value
			out[i].Count++
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, err
}

func (s *Store) SumReputation(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := s.do(ctx, func(st *state) error {
		for _, e := range st.events {
			if e.UserID == userID {
				total += e.Value
			}
		}
		return nil
	})
	return total, err
}

func eventID(e model.ReputationEvent) string           { return e.ID }
func eventCreatedAt(e model.ReputationEvent) time.Time { return e.CreatedAt }
