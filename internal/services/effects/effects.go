// Package effects collects the side effects of a committed transaction and
// runs them afterwards. Delivery is best-effort: failures are logged and
// never surface to the caller.
package effects

import (
	"context"

	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
)

type Kind string

const (
	KindPush         Kind = "push"
	KindNotification Kind = "notification"
	KindFeed         Kind = "feed"
	KindAlert        Kind = "alert"
)

// Push is a realtime event addressed to one user's room.
type Push struct {
	UserID  string
	Event   string
	Payload map[string]any
}

type Item struct {
	Kind         Kind
	Push         Push
	Notification model.NewNotification
	Feed         model.NewFeedEvent
	Alert        string
}

// Batch keeps items in the order they were queued. The zero value is ready
// to use.
type Batch struct {
	items []Item
}

func (b *Batch) Push(userID, event string, payload map[string]any) {
	b.items = append(b.items, Item{Kind: KindPush, Push: Push{UserID: userID, Event: event, Payload: payload}})
}

func (b *Batch) Notify(n model.NewNotification) {
	b.items = append(b.items, Item{Kind: KindNotification, Notification: n})
}

func (b *Batch) Feed(e model.NewFeedEvent) {
	b.items = append(b.items, Item{Kind: KindFeed, Feed: e})
}

func (b *Batch) Alert(text string) {
	b.items = append(b.items, Item{Kind: KindAlert, Alert: text})
}

func (b *Batch) Append(other Batch) {
	b.items = append(b.items, other.items...)
}

func (b Batch) Len() int {
	return len(b.items)
}

// Pushes returns only the realtime items, in order.
func (b Batch) Pushes() []Push {
	var out []Push
	for _, it := range b.items {
		if it.Kind == KindPush {
			out = append(out, it.Push)
		}
	}
	return out
}

type Pusher interface {
	EmitToUser(userID, event string, payload any)
}

type Notifier interface {
	Create(ctx context.Context, input model.NewNotification) (model.Notification, error)
}

type FeedPublisher interface {
	CreateEvent(ctx context.Context, input model.NewFeedEvent) (model.FeedEvent, error)
}

type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// Dispatcher runs a batch against whichever sinks are configured; a nil sink
// silently skips its items.
type Dispatcher struct {
	pusher   Pusher
	notifier Notifier
	feed     FeedPublisher
	alerter  Alerter
	logger   *zap.Logger
}

type Sinks struct {
	Pusher   Pusher
	Notifier Notifier
	Feed     FeedPublisher
	Alerter  Alerter
}

func NewDispatcher(sinks Sinks, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		pusher:   sinks.Pusher,
		notifier: sinks.Notifier,
		feed:     sinks.Feed,
		alerter:  sinks.Alerter,
		logger:   logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, batch Batch) {
	if d == nil {
		return
	}
	for _, it := range batch.items {
		switch it.Kind {
		case KindPush:
			if d.pusher != nil {
				d.pusher.EmitToUser(it.Push.UserID, it.Push.Event, it.Push.Payload)
			}
		case KindNotification:
			if d.notifier == nil {
				continue
			}
			if _, err := d.notifier.Create(ctx, it.Notification); err != nil {
				d.logger.Warn("notification delivery failed",
					zap.String("user_id", it.Notification.UserID),
					zap.String("type", string(it.Notification.Type)),
					zap.Error(err),
				)
			}
		case KindFeed:
			if d.feed == nil {
				continue
			}
			if _, err := d.feed.CreateEvent(ctx, it.Feed); err != nil {
				d.logger.Warn("feed event publish failed",
					zap.String("actor_id", it.Feed.ActorID),
					zap.String("type", string(it.Feed.Type)),
					zap.Error(err),
				)
			}
		case KindAlert:
			if d.alerter == nil {
				continue
			}
			if err := d.alerter.Alert(ctx, it.Alert); err != nil {
				d.logger.Warn("staff alert failed", zap.Error(err))
			}
		}
	}
}
