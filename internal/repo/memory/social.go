package memory

import (
	"context"
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

func (s *Store) InsertFollow(ctx context.Context, followerID, followingID string) (model.Follow, error) {
	var out model.Follow
	err := s.do(ctx, func(st *state) error {
		for _, f := range st.follows {
			if f.FollowerID == followerID && f.FollowingID == followingID {
				return repo.ErrDuplicate
			}
		}
		id, now := s.stamp(st, "")
		out = model.Follow{
			ID:          id,
			FollowerID:  followerID,
			FollowingID: followingID,
			CreatedAt:   now,
		}
		st.follows = append(st.follows, out)
		return nil
	})
	return out, err
}

func (s *Store) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	deleted := false
	err := s.do(ctx, func(st *state) error {
		for i, f := range st.follows {
			if f.FollowerID == followerID && f.FollowingID == followingID {
				st.follows = append(st.follows[:i:i], st.follows[i+1:]...)
				deleted = true
				return nil
			}
		}
		return nil
	})
	return deleted, err
}

func (s *Store) FollowExists(ctx context.Context, followerID, followingID string) (bool, error) {
	found := false
	err := s.do(ctx, func(st *state) error {
		for _, f := range st.follows {
			if f.FollowerID == followerID && f.FollowingID == followingID {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s *Store) ListFollowers(ctx context.Context, userID, cursor string, limit int) ([]model.FollowEdge, error) {
	return s.listEdges(ctx, cursor, limit, func(f model.Follow) (string, bool) {
		return f.FollowerID, f.FollowingID == userID
	})
}

func (s *Store) ListFollowing(ctx context.Context, userID, cursor string, limit int) ([]model.FollowEdge, error) {
	return s.listEdges(ctx, cursor, limit, func(f model.Follow) (string, bool) {
		return f.FollowingID, f.FollowerID == userID
	})
}

func (s *Store) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := s.do(ctx, func(st *state) error {
		for _, f := range st.follows {
			if f.FollowingID == userID {
				out = append(out, f.FollowerID)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var out []string
	err := s.do(ctx, func(st *state) error {
		for _, f := range st.follows {
			if f.FollowerID == userID {
				out = append(out, f.FollowingID)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) listEdges(ctx context.Context, cursor string, limit int, match func(model.Follow) (string, bool)) ([]model.FollowEdge, error) {
	var out []model.FollowEdge
	err := s.do(ctx, func(st *state) error {
		var matched []model.Follow
		for _, f := range st.follows {
			if _, ok := match(f); ok {
				matched = append(matched, f)
			}
		}
		newestFirst(st, matched, followID, followCreatedAt)
		page := pageAfter(matched, cursor, limit, followID)
		out = make([]model.FollowEdge, 0, len(page))
		for _, f := range page {
			otherID, _ := match(f)
			other := st.users[otherID]
			out = append(out, model.FollowEdge{
				ID:        f.ID,
				User:      other.Summary(),
				CreatedAt: f.CreatedAt,
			})
		}
		return nil
	})
	return out, err
}

func (s *Store) InsertFeedEvent(ctx context.Context, e model.FeedEvent) (model.FeedEvent, error) {
	err := s.do(ctx, func(st *state) error {
		id, now := s.stamp(st, e.ID)
		e.ID = id
		e.CreatedAt = now
		if e.Payload == nil {
			e.Payload = map[string]any{}
		}
		st.feed = append(st.feed, e)
		e.Actor = actorSummary(st, e.ActorID)
		return nil
	})
	return e, err
}

// ListFeedEvents pages events by the given actors, or all events when
// actorIDs is nil.
func (s *Store) ListFeedEvents(ctx context.Context, actorIDs []string, cursor string, limit int) ([]model.FeedEvent, error) {
	var out []model.FeedEvent
	err := s.do(ctx, func(st *state) error {
		var allowed map[string]struct{}
		if actorIDs != nil {
			allowed = make(map[string]struct{}, len(actorIDs))
			for _, id := range actorIDs {
				allowed[id] = struct{}{}
			}
		}
		var matched []model.FeedEvent
		for _, e := range st.feed {
			if allowed != nil {
				if _, ok := allowed[e.ActorID]; !ok {
					continue
				}
			}
			matched = append(matched, e)
		}
		newestFirst(st, matched, feedID, feedCreatedAt)
		out = pageAfter(matched, cursor, limit, feedID)
		for i := range out {
			out[i].Actor = actorSummary(st, out[i].ActorID)
		}
		return nil
	})
	return out, err
}

func actorSummary(st *state, id string) *model.UserSummary {
	u, ok := st.users[id]
	if !ok {
		return nil
	}
	summary := u.Summary()
	return &summary
}

func followID(f model.Follow) string            { return f.ID }
func followCreatedAt(f model.Follow) time.Time  { return f.CreatedAt }
func feedID(e model.FeedEvent) string           { return e.ID }
func feedCreatedAt(e model.FeedEvent) time.Time { return e.CreatedAt }
