package repository

import (
	"context"
	"time"

	"github.com/synergysphere/backend/domain"
)

type InvitationRepository interface {
	// Create inserts a fresh pending invitation. A partial unique index on
	// (project_id, email) WHERE status='pending' turns a concurrent
	// duplicate into ErrDuplicateInvitation.
	Create(ctx context.Context, inv *domain.Invitation) error
	// GetPendingByToken resolves a token to its pending, unexpired
	// invitation, or ErrInvalidToken.
	GetPendingByToken(ctx context.Context, token string, now time.Time) (*domain.Invitation, error)
	// HasPending reports whether a pending, unexpired invitation exists for
	// the (project, email) pair.
	HasPending(ctx context.Context, projectID, email string, now time.Time) (bool, error)
	// Consume transitions pending → status for the token as a single
	// conditional write. A second concurrent consume observes the already
	// updated row and fails with ErrInvalidToken.
	Consume(ctx context.Context, token, status string, now time.Time) (*domain.Invitation, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Invitation, error)
	ListPendingByEmail(ctx context.Context, email string, now time.Time) ([]domain.Invitation, error)
	// DeleteExpired sweeps rows past their expiry regardless of status and
	// returns the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
