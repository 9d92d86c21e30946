package dto

import (
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
)

type CreateReportRequest struct {
	TargetUserID *string                `json:"target_user_id"`
	TargetType   enums.ReportTargetType `json:"target_type"`
	TargetID     *string                `json:"target_id"`
	Reason       enums.ReportReason     `json:"reason"`
	Description  *string                `json:"description"`
}

type ResolveReportRequest struct {
	Status enums.ReportStatus `json:"status"`
	Note   *string            `json:"note"`
}

type BanUserRequest struct {
	Reason string `json:"reason"`
}

type SuspendUserRequest struct {
	Reason string `json:"reason"`
	Days   int    `json:"days"`
}

type AuditExportRequest struct {
	ActorID  string            `json:"actor_id"`
	TargetID string            `json:"target_id"`
	Action   enums.AuditAction `json:"action"`
}

type FollowLimitResponse struct {
	Limit   int  `json:"limit"`
	Current int  `json:"current"`
	Allowed bool `json:"allowed"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}

type FollowStatusResponse struct {
	Following bool `json:"following"`
}

type UserStatusResponse struct {
	ID              string           `json:"id"`
	Status          enums.UserStatus `json:"status"`
	RestrictedUntil *time.Time       `json:"restricted_until,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
