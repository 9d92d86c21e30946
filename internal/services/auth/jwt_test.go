package auth

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
)

func TestParseAccessTokenExpiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m := NewJWTManager("test-secret", time.Minute)
	m.now = func() time.Time { return now }

	token, _, err := m.GenerateAccessToken("u-1", "moderator")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	now = now.Add(time.Minute + 10*time.Second)
	claims, err := m.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("expected token within leeway to parse: %v", err)
	}
	if claims.Role != enums.RoleModerator {
		t.Fatalf("unexpected role: got %q want %q", claims.Role, enums.RoleModerator)
	}

	now = now.Add(time.Minute)
	if _, err := m.ParseAccessToken(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestParseAccessTokenRejectsForeignIssuer(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.ParseAccessToken(signed); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected foreign issuer to be rejected, got %v", err)
	}
}

func TestParseAccessTokenRequiresExpiry(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  tokenIssuer,
		Subject: "u-1",
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.ParseAccessToken(signed); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected token without exp to be rejected, got %v", err)
	}
}
