package model

import (
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
)

type FeedEvent struct {
	ID        string              `json:"id"`
	ActorID   string              `json:"actor_id"`
	Actor     *UserSummary        `json:"actor,omitempty"`
	Type      enums.FeedEventType `json:"type"`
	Title     string              `json:"title"`
	Summary   string              `json:"summary"`
	Payload   map[string]any      `json:"payload"`
	CreatedAt time.Time           `json:"created_at"`
}

type NewFeedEvent struct {
	ActorID string
	Type    enums.FeedEventType
	Title   string
	Summary string
	Payload map[string]any
}
