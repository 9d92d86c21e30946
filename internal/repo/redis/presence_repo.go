package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	onlineUsersKey  = "users:online"
	userSocketsKey  = "user:sockets:"
	userLastSeenKey = "user:last_seen:"
)

// PresenceRepo tracks which users hold at least one open socket.
type PresenceRepo struct {
	client *goredis.Client
	now    func() time.Time
}

func NewPresenceRepo(client *goredis.Client) *PresenceRepo {
	return &PresenceRepo{client: client, now: time.Now}
}

// AddSocket registers a socket and returns how many sockets the user now has.
func (r *PresenceRepo) AddSocket(ctx context.Context, userID, socketID string) (int64, error) {
	if err := r.check(userID, socketID); err != nil {
		return 0, err
	}

	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, userSocketsKey+userID, socketID)
	pipe.SAdd(ctx, onlineUsersKey, userID)
	pipe.Set(ctx, userLastSeenKey+userID, r.now().UTC().Unix(), 0)
	count := pipe.SCard(ctx, userSocketsKey+userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("add socket: %w", err)
	}
	return count.Val(), nil
}

// RemoveSocket forgets a socket and returns the user's remaining socket count.
// The user leaves the online set when the count reaches zero.
func (r *PresenceRepo) RemoveSocket(ctx context.Context, userID, socketID string) (int64, error) {
	if err := r.check(userID, socketID); err != nil {
		return 0, err
	}

	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, userSocketsKey+userID, socketID)
	pipe.Set(ctx, userLastSeenKey+userID, r.now().UTC().Unix(), 0)
	remaining := pipe.SCard(ctx, userSocketsKey+userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("remove socket: %w", err)
	}

	if remaining.Val() == 0 {
		if err := r.client.SRem(ctx, onlineUsersKey, userID).Err(); err != nil {
			return 0, fmt.Errorf("remove online user: %w", err)
		}
	}
	return remaining.Val(), nil
}

func (r *PresenceRepo) OnlineCount(ctx context.Context) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	count, err := r.client.SCard(ctx, onlineUsersKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count online users: %w", err)
	}
	return count, nil
}

func (r *PresenceRepo) IsOnline(ctx context.Context, userID string) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	online, err := r.client.SIsMember(ctx, onlineUsersKey, userID).Result()
	if err != nil {
		return false, fmt.Errorf("check online user: %w", err)
	}
	return online, nil
}

// LastSeen reports the last connect or disconnect time; ok is false when the
// user never connected.
func (r *PresenceRepo) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	if r.client == nil {
		return time.Time{}, false, fmt.Errorf("redis client is nil")
	}
	raw, err := r.client.Get(ctx, userLastSeenKey+userID).Result()
	if err == goredis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get last seen: %w", err)
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last seen: %w", err)
	}
	return time.Unix(unix, 0).UTC(), true, nil
}

func (r *PresenceRepo) check(userID, socketID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(socketID) == "" {
		return fmt.Errorf("user id and socket id are required")
	}
	return nil
}
