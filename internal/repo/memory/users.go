package memory

import (
	"context"
	"sort"
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

// PutUser inserts or replaces a user, filling defaults for blank fields.
func (s *Store) PutUser(u model.User) model.User {
	_ = s.do(context.Background(), func(st *state) error {
		id, now := s.stamp(st, u.ID)
		u.ID = id
		if u.Role == "" {
			u.Role = enums.RoleUser
		}
		if u.Status == "" {
			u.Status = enums.UserStatusActive
		}
		if u.TrustLevel == "" {
			u.TrustLevel = enums.TrustLevelNew
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		u.UpdatedAt = now
		st.users[u.ID] = u
		return nil
	})
	return u
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	var out model.User
	err := s.do(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repo.ErrNotFound
		}
		out = u
		return nil
	})
	return out, err
}

// LockUser is GetUser; the store mutex already serializes writers.
func (s *Store) LockUser(ctx context.Context, id string) (model.User, error) {
	return s.GetUser(ctx, id)
}

func (s *Store) IncrementReputation(ctx context.Context, id string, delta float64, countReport bool) (model.User, error) {
	return s.mutateUser(ctx, id, func(u *model.User) {
		u.ReputationScore += delta
		if countReport {
			u.ReportsReceived++
		}
	})
}

func (s *Store) SetTrustLevel(ctx context.Context, id string, level enums.TrustLevel) error {
	_, err := s.mutateUser(ctx, id, func(u *model.User) {
		u.TrustLevel = level
	})
	return err
}

func (s *Store) OverwriteReputation(ctx context.Context, id string, score float64, level enums.TrustLevel) error {
	_, err := s.mutateUser(ctx, id, func(u *model.User) {
		u.ReputationScore = score
		u.TrustLevel = level
	})
	return err
}

func (s *Store) SetUserStatus(ctx context.Context, id string, status enums.UserStatus) error {
	_, err := s.mutateUser(ctx, id, func(u *model.User) {
		u.Status = status
	})
	return err
}

func (s *Store) SetRestrictedUntil(ctx context.Context, id string, until *time.Time) error {
	_, err := s.mutateUser(ctx, id, func(u *model.User) {
		if until == nil {
			u.RestrictedUntil = nil
			return
		}
		u.RestrictedUntil = ptr(until.UTC())
	})
	return err
}

func (s *Store) AdjustFollowCounts(ctx context.Context, followerID, followingID string, delta int) error {
	return s.do(ctx, func(st *state) error {
		follower, ok := st.users[followerID]
		if !ok {
			return repo.ErrNotFound
		}
		following, ok := st.users[followingID]
		if !ok {
			return repo.ErrNotFound
		}
		now := s.now().UTC()
		follower.Following = clampCount(follower.Following + delta)
		follower.UpdatedAt = now
		following.Followers = clampCount(following.Followers + delta)
		following.UpdatedAt = now
		st.users[followerID] = follower
		st.users[followingID] = following
		return nil
	})
}

func (s *Store) ListExpiredSuspensions(ctx context.Context, now time.Time, limit int) ([]model.User, error) {
	var out []model.User
	err := s.do(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Status != enums.UserStatusSuspended || u.RestrictedUntil == nil {
				continue
			}
			if u.RestrictedUntil.After(now) {
				continue
			}
			out = append(out, u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].RestrictedUntil.Before(*out[j].RestrictedUntil)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (s *Store) mutateUser(ctx context.Context, id string, fn func(u *model.User)) (model.User, error) {
	var out model.User
	err := s.do(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repo.ErrNotFound
		}
		fn(&u)
		u.UpdatedAt = s.now().UTC()
		st.users[id] = u
		out = u
		return nil
	})
	return out, err
}

func clampCount(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
