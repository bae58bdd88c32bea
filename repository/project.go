package repository

import (
	"context"

	"github.com/synergysphere/backend/domain"
)

type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// ListForUser returns projects the user owns or is a member of.
	ListForUser(ctx context.Context, userID string) ([]domain.Project, error)
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	// Delete removes the project and cascades members, tasks, invitations
	// and attachment records.
	Delete(ctx context.Context, id string) error

	// AddMember inserts the membership if absent. The (project, user)
	// primary key makes the insert idempotent; the boolean reports whether
	// a row was actually added.
	AddMember(ctx context.Context, projectID string, member domain.Member) (bool, error)
	RemoveMember(ctx context.Context, projectID, userID string) error
}
