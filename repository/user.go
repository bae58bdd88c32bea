package repository

import (
	"context"
	"time"

	"github.com/synergysphere/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail matches case-insensitively; emails are stored lowercase.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// ConfirmEmail flips the confirmation flag and clears the token in one
	// conditional write; it fails with ErrInvalidToken when no user holds
	// the token unexpired.
	ConfirmEmail(ctx context.Context, token string, now time.Time) (*domain.User, error)
	SetResetToken(ctx context.Context, id, token string, expires time.Time) error
	// ResetPassword swaps the hash and clears the reset token in one
	// conditional write, failing with ErrInvalidToken on a stale token.
	ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error
}
