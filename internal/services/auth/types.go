package auth

import (
	"errors"
	"time"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
)

var ErrUnauthorized = errors.New("unauthorized")

type AccessClaims struct {
	UserID    string
	Role      enums.Role
	ExpiresAt time.Time
}
