package model

import (
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
)

type User struct {
	ID              string           `json:"id"`
	Username        string           `json:"username"`
	Role            enums.Role       `json:"role"`
	Status          enums.UserStatus `json:"status"`
	ReputationScore float64          `json:"reputation_score"`
	TrustLevel      enums.TrustLevel `json:"trust_level"`
	ReportsReceived int              `json:"reports_received"`
	RestrictedUntil *time.Time       `json:"restricted_until,omitempty"`
	Followers       int              `json:"followers"`
	Following       int              `json:"following"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// UserSummary is the public projection embedded in listings.
type UserSummary struct {
	ID         string           `json:"id"`
	Username   string           `json:"username"`
	TrustLevel enums.TrustLevel `json:"trust_level"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, TrustLevel: u.TrustLevel}
}
