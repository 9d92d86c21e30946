package model

import (
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
)

type AuditLog struct {
	ID        string            `json:"id"`
	ActorID   string            `json:"actor_id"`
	Action    enums.AuditAction `json:"action"`
	TargetID  *string           `json:"target_id,omitempty"`
	Details   map[string]any    `json:"details"`
	CreatedAt time.Time         `json:"created_at"`
}

// AuditFilter narrows audit queries; zero fields match everything.
type AuditFilter struct {
	ActorID  string
	TargetID string
	Action   enums.AuditAction
}
