package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

const userColumns = `id, username, role, status, reputation_score, trust_level, reports_received,
	restricted_until, followers, following, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetUser(ctx context.Context, id string) (model.User, error) {
	return r.getUser(ctx, id, "")
}

// LockUser reads the row with FOR UPDATE; it must run inside WithinTx.
func (r *UserRepo) LockUser(ctx context.Context, id string) (model.User, error) {
	return r.getUser(ctx, id, "FOR UPDATE")
}

func (r *UserRepo) IncrementReputation(ctx context.Context, id string, delta float64, countReport bool) (model.User, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.User{}, err
	}

	reportsDelta := 0
	if countReport {
		reportsDelta = 1
	}

	user, err := scanUser(q.QueryRow(ctx, `
UPDATE users SET
	reputation_score = reputation_score + $2,
	reports_received = reports_received + $3,
	updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns, id, delta, reportsDelta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, repo.ErrNotFound
		}
		return model.User{}, fmt.Errorf("increment reputation: %w", err)
	}
	return user, nil
}

func (r *UserRepo) SetTrustLevel(ctx context.Context, id string, level enums.TrustLevel) error {
	return r.exec(ctx, "set trust level", `
UPDATE users SET trust_level = $2, updated_at = NOW() WHERE id = $1
`, id, string(level))
}

func (r *UserRepo) OverwriteReputation(ctx context.Context, id string, score float64, level enums.TrustLevel) error {
	return r.exec(ctx, "overwrite reputation", `
UPDATE users SET reputation_score = $2, trust_level = $3, updated_at = NOW() WHERE id = $1
`, id, score, string(level))
}

func (r *UserRepo) SetUserStatus(ctx context.Context, id string, status enums.UserStatus) error {
	return r.exec(ctx, "set user status", `
UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1
`, id, string(status))
}

func (r *UserRepo) SetRestrictedUntil(ctx context.Context, id string, until *time.Time) error {
	return r.exec(ctx, "set restricted until", `
UPDATE users SET restricted_until = $2, updated_at = NOW() WHERE id = $1
`, id, until)
}

func (r *UserRepo) AdjustFollowCounts(ctx context.Context, followerID, followingID string, delta int) error {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `
UPDATE users SET
	following = GREATEST(following + $2, 0),
	updated_at = NOW()
WHERE id = $1
`, followerID, delta)
	if err != nil {
		return fmt.Errorf("adjust following count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	tag, err = q.Exec(ctx, `
UPDATE users SET
	followers = GREATEST(followers + $2, 0),
	updated_at = NOW()
WHERE id = $1
`, followingID, delta)
	if err != nil {
		return fmt.Errorf("adjust followers count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *UserRepo) ListExpiredSuspensions(ctx context.Context, now time.Time, limit int) ([]model.User, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := q.Query(ctx, `
SELECT `+userColumns+`
FROM users
WHERE status = 'SUSPENDED'
	AND restricted_until IS NOT NULL
	AND restricted_until <= $1
ORDER BY restricted_until ASC
LIMIT $2
`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired suspensions: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired suspension: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired suspensions: %w", err)
	}
	return users, nil
}

func (r *UserRepo) getUser(ctx context.Context, id, lock string) (model.User, error) {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return model.User{}, err
	}

	user, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 `+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, repo.ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) exec(ctx context.Context, op, sql string, args ...any) error {
	q, err := conn(ctx, r.pool)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		u      model.User
		role   string
		status string
		level  string
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&role,
		&status,
		&u.ReputationScore,
		&level,
		&u.ReportsReceived,
		&u.RestrictedUntil,
		&u.Followers,
		&u.Following,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	u.Role = enums.Role(role)
	u.Status = enums.UserStatus(status)
	u.TrustLevel = enums.TrustLevel(level)
	return u, nil
}
