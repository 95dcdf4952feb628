package repository

import (
	"context"

	"github.com/vidora/vidora-api/internal/domain/entity"
)

// UserRepository defines the persistence operations for user identities.
// Implementations must enforce username/email uniqueness and translate
// constraint violations to apperrors.ErrAlreadyExists.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByUsernameOrEmail matches either identifier; blank arguments match nothing.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)
	// SetRefreshToken overwrites the stored refresh token, invalidating any
	// previously issued one.
	SetRefreshToken(ctx context.Context, id, token string) error
	// ClearRefreshToken is idempotent; clearing an absent token is not an error.
	ClearRefreshToken(ctx context.Context, id string) error
}
