package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

type SocialRepo struct {
	pool *pgxpool.Pool
}

func NewSocialRepo(pool *pgxpool.Pool) *SocialRepo {
	return &SocialRepo{pool: pool}
}

func (r *SocialRepo) InsertFollow(ctx context.Context, followerID, followingID string) (model.Follow, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.Follow{}, err
	}

	f := model.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := q.QueryRow(ctx, `
INSERT INTO follows (follower_id, following_id)
VALUES ($1, $2)
RETURNING id, created_at
`, followerID, followingID).Scan(&f.ID, &f.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return model.Follow{}, repo.ErrDuplicate
		}
		return model.Follow{}, fmt.Errorf("insert follow: %w", err)
	}
	return f, nil
}

func (r *SocialRepo) DeleteFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return false, err
	}

	tag, err := q.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SocialRepo) FollowExists(ctx context.Context, followerID, followingID string) (bool, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := q.QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)
`, followerID, followingID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}

func (r *SocialRepo) ListFollowers(ctx context.Context, userID, cursor string, limit int) ([]model.FollowEdge, error) {
	return r.listEdges(ctx, "follower_id", "following_id", userID, cursor, limit)
}

func (r *SocialRepo) ListFollowing(ctx context.Context, userID, cursor string, limit int) ([]model.FollowEdge, error) {
	return r.listEdges(ctx, "following_id", "follower_id", userID, cursor, limit)
}

// listEdges joins the user on the other side of each edge. The column
// names are constants chosen by the two callers above.
func (r *SocialRepo) listEdges(ctx context.Context, otherCol, selfCol, userID, cursor string, limit int) ([]model.FollowEdge, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, fmt.Sprintf(`
SELECT f.id, u.id, u.username, u.trust_level, f.created_at
FROM follows f
JOIN users u ON u.id = f.%[1]s
WHERE f.%[2]s = $1
	AND ($2::text = '' OR (f.created_at, f.id) < (SELECT created_at, id FROM follows WHERE id = $2::text))
ORDER BY f.created_at DESC, f.id DESC
LIMIT $3
`, otherCol, selfCol), userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list follow edges: %w", err)
	}
	defer rows.Close()

	var out []model.FollowEdge
	for rows.Next() {
		var (
			e     model.FollowEdge
			level string
		)
		if err := rows.Scan(&e.ID, &e.User.ID, &e.User.Username, &level, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan follow edge: %w", err)
		}
		e.User.TrustLevel = enums.TrustLevel(level)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow edges: %w", err)
	}
	return out, nil
}

func (r *SocialRepo) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return r.collectIDs(ctx, `SELECT follower_id FROM follows WHERE following_id = $1`, userID)
}

func (r *SocialRepo) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.collectIDs(ctx, `SELECT following_id FROM follows WHERE follower_id = $1`, userID)
}

func (r *SocialRepo) collectIDs(ctx context.Context, sql, userID string) ([]string, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("list follow ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect follow ids: %w", err)
	}
	return ids, nil
}

func (r *SocialRepo) InsertFeedEvent(ctx context.Context, e model.FeedEvent) (model.FeedEvent, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.FeedEvent{}, err
	}
	if e.Payload == nil {
		e.Payload = map[string]any{}
	}

	var (
		actor model.UserSummary
		level string
	)
	if err := q.QueryRow(ctx, `
WITH inserted AS (
	INSERT INTO feed_events (actor_id, type, title, summary, payload)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, actor_id, created_at
)
SELECT i.id, i.created_at, u.id, u.username, u.trust_level
FROM inserted i
JOIN users u ON u.id = i.actor_id
`, e.ActorID, string(e.Type), e.Title, e.Summary, e.Payload).Scan(&e.ID, &e.CreatedAt, &actor.ID, &actor.Username, &level); err != nil {
		return model.FeedEvent{}, fmt.Errorf("insert feed event: %w", err)
	}
	actor.TrustLevel = enums.TrustLevel(level)
	e.Actor = &actor
	return e, nil
}

// ListFeedEvents pages events by the given actors, or all events when
// actorIDs is nil.
func (r *SocialRepo) ListFeedEvents(ctx context.Context, actorIDs []string, cursor string, limit int) ([]model.FeedEvent, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return nil, err
	}

	filtered := actorIDs != nil
	if actorIDs == nil {
		actorIDs = []string{}
	}

	rows, err := q.Query(ctx, `
SELECT e.id, e.actor_id, e.type, e.title, e.summary, e.payload, e.created_at,
	u.username, u.trust_level
FROM feed_events e
JOIN users u ON u.id = e.actor_id
WHERE (NOT $1::bool OR e.actor_id = ANY($2::text[]))
	AND ($3::text = '' OR (e.created_at, e.id) < (SELECT created_at, id FROM feed_events WHERE id = $3::text))
ORDER BY e.created_at DESC, e.id DESC
LIMIT $4
`, filtered, actorIDs, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list feed events: %w", err)
	}
	defer rows.Close()

	var out []model.FeedEvent
	for rows.Next() {
		var (
			e         model.FeedEvent
			eventType string
			actor     model.UserSummary
			level     string
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &eventType, &e.Title, &e.Summary, &e.Payload, &e.CreatedAt, &actor.Username, &level); err != nil {
			return nil, fmt.Errorf("scan feed event: %w", err)
		}
		e.Type = enums.FeedEventType(eventType)
		actor.ID = e.ActorID
		actor.TrustLevel = enums.TrustLevel(level)
		e.Actor = &actor
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed events: %w", err)
	}
	return out, nil
}
