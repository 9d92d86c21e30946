package model

import (
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
)

type ReputationEvent struct {
	ID        string                    `json:"id"`
	UserID    string                    `json:"user_id"`
	ActorID   *string                   `json:"actor_id,omitempty"`
	Type      enums.ReputationEventType `json:"type"`
	Value     float64                   `json:"value"`
	Reason    *string                   `json:"reason,omitempty"`
	Metadata  map[string]any            `json:"metadata"`
	CreatedAt time.Time                 `json:"created_at"`
}

type ReputationBreakdown struct {
	Type       enums.ReputationEventType `json:"type"`
	TotalValue float64                   `json:"total_value"`
	Count      int                       `json:"count"`
}
