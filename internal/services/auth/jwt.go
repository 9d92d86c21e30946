package auth

import (
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
)

const (
	tokenIssuer      = "matzon-platform"
	defaultAccessTTL = 15 * time.Minute
	clockLeeway      = 30 * time.Second
)

// JWTManager signs and verifies HS256 access tokens. The role claim is only
// a hint; Service.ValidateAccessToken re-reads the stored role.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, now: time.Now}
}

// GenerateAccessToken is used by tests and local tooling; production tokens
// come from the identity service with the same secret and issuer.
func (m *JWTManager) GenerateAccessToken(userID string, role enums.Role) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is empty")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("access token subject is required")
	}
	if role == "" {
		role = enums.RoleUser
	}

	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(m.accessTTL)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// ParseAccessToken returns ErrUnauthorized for anything but a valid,
// unexpired token from this issuer.
func (m *JWTManager) ParseAccessToken(raw string) (AccessClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(m.secret) == 0 {
		return AccessClaims{}, ErrUnauthorized
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, m.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || strings.TrimSpace(claims.Subject) == "" {
		return AccessClaims{}, ErrUnauthorized
	}

	return AccessClaims{
		UserID:    claims.Subject,
		Role:      normalizeRole(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (m *JWTManager) key(*jwt.Token) (any, error) {
	return m.secret, nil
}

func normalizeRole(raw string) enums.Role {
	role := enums.Role(strings.ToUpper(strings.TrimSpace(raw)))
	if role == "" {
		return enums.RoleUser
	}
	return role
}
