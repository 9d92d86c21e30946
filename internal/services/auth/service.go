package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
)

type UserLookup interface {
	GetUser(ctx context.Context, id string) (model.User, error)
}

// Service turns bearer tokens into identities. When a user lookup is wired
// the stored role wins over the token claim and banned accounts are refused.
type Service struct {
	jwt   *JWTManager
	users UserLookup
}

func NewService(jwtManager *JWTManager, users UserLookup) *Service {
	return &Service{
		jwt:   jwtManager,
		users: users,
	}
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (Identity, error) {
	if s.jwt == nil {
		return Identity{}, fmt.Errorf("jwt manager is not configured")
	}

	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return Identity{}, err
	}
	identity := Identity{UserID: claims.UserID, Role: claims.Role}
	if s.users == nil {
		return identity, nil
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, fmt.Errorf("load user: %w", err)
	}
	if user.Status == enums.UserStatusBanned {
		return Identity{}, ErrUnauthorized
	}
	identity.Role = user.Role
	return identity, nil
}
