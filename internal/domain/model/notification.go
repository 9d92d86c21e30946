package model

import (
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
)

type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	ActorID   *string                `json:"actor_id,omitempty"`
	Payload   map[string]any         `json:"payload"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

type NewNotification struct {
	UserID  string
	Type    enums.NotificationType
	Title   string
	Message string
	ActorID *string
	Payload map[string]any
}
