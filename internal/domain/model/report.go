package model

import (
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
)

type Report struct {
	ID           string                 `json:"id"`
	ReporterID   string                 `json:"reporter_id"`
	TargetUserID *string                `json:"target_user_id,omitempty"`
	TargetType   enums.ReportTargetType `json:"target_type"`
	TargetID     *string                `json:"target_id,omitempty"`
	Reason       enums.ReportReason     `json:"reason"`
	Description  *string                `json:"description,omitempty"`
	Status       enums.ReportStatus     `json:"status"`
	ResolvedBy   *string                `json:"resolved_by,omitempty"`
	ResolvedNote *string                `json:"resolved_note,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	ResolvedAt   *time.Time             `json:"resolved_at,omitempty"`
}

// AuditTarget prefers the reported user over the generic target id.
func (r Report) AuditTarget() *string {
	if r.TargetUserID != nil {
		return r.TargetUserID
	}
	return r.TargetID
}

type ReportResolution struct {
	Status     enums.ReportStatus
	ResolvedBy string
	Note       *string
	ResolvedAt time.Time
}

type ReportStats struct {
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Rejected  int `json:"rejected"`
	Total     int `json:"total"`
}
