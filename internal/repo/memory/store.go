// Package memory is an in-process storage driver. One mutex guards all
// state; WithinTx holds it for the whole unit and restores a snapshot when
// fn fails.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
)

type txKey struct{}

type state struct {
	seq           int64
	users         map[string]model.User
	events        []model.ReputationEvent
	reports       []model.Report
	audit         []model.AuditLog
	follows       []model.Follow
	notifications []model.Notification
	feed          []model.FeedEvent
	order         map[string]int64
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		st:  newState(),
		now: time.Now,
	}
}

// SetClock replaces the timestamp source used for created_at fields.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	s.now = now
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) stamp(st *state, id string) (string, time.Time) {
	if id == "" {
		id = uuid.NewString()
	}
	st.seq++
	st.order[id] = st.seq
	return id, s.now().UTC()
}

func newState() *state {
	return &state{
		users: make(map[string]model.User),
		order: make(map[string]int64),
	}
}

func (st *state) clone() *state {
	out := &state{
		seq:           st.seq,
		users:         make(map[string]model.User, len(st.users)),
		events:        append([]model.ReputationEvent(nil), st.events...),
		reports:       append([]model.Report(nil), st.reports...),
		audit:         append([]model.AuditLog(nil), st.audit...),
		follows:       append([]model.Follow(nil), st.follows...),
		notifications: append([]model.Notification(nil), st.notifications...),
		feed:          append([]model.FeedEvent(nil), st.feed...),
		order:         make(map[string]int64, len(st.order)),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.order {
		out.order[k] = v
	}
	return out
}

// newestFirst sorts by created_at desc with insertion order breaking ties.
func newestFirst[T any](st *state, items []T, id func(T) string, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := createdAt(items[i]), createdAt(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return st.order[id(items[i])] > st.order[id(items[j])]
	})
}

// pageAfter returns up to limit items following cursor. An unknown cursor
// yields an empty page.
func pageAfter[T any](items []T, cursor string, limit int, id func(T) string) []T {
	start := 0
	if cursor != "" {
		start = -1
		for i, item := range items {
			if id(item) == cursor {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return []T{}
		}
	}
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

func ptr[T any](v T) *T {
	return &v
}
