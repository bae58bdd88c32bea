package project

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/repository"
	"github.com/synergysphere/backend/usecase"
)

type UseCase struct {
	projects repository.ProjectRepository
	notifier usecase.Notifier
	logger   *zap.Logger
}

func New(projects repository.ProjectRepository, notifier usecase.Notifier, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		projects: projects,
		notifier: notifier,
		logger:   logger,
	}
}

func (uc *UseCase) Create(ctx context.Context, actor domain.Identity, name, description string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "project name is required")
	}

	now := time.Now()
	project := &domain.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (uc *UseCase) List(ctx context.Context, actor domain.Identity) ([]domain.Project, error) {
	return uc.projects.ListForUser(ctx, actor.ID)
}

// Get returns the project when the actor participates in it. Outsiders
// get not-found rather than forbidden so existence is not leaked.
func (uc *UseCase) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Project, error) {
	project, err := uc.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(actor.ID) {
		return nil, domain.ErrProjectNotFound
	}
	return project, nil
}

func (uc *UseCase) Update(ctx context.Context, actor domain.Identity, id, name, description string) (*domain.Project, error) {
	project, err := uc.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(actor.ID) {
		return nil, domain.ErrProjectNotFound
	}
	if !project.CanManage(actor.ID) {
		return nil, domain.ErrForbidden
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "project name is required")
	}
	project.Name = name
	project.Description = strings.TrimSpace(description)
	project.UpdatedAt = time.Now()

	if err := uc.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project with everything hanging off it. Owner only.
func (uc *UseCase) Delete(ctx context.Context, actor domain.Identity, id string) error {
	project, err := uc.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !project.HasMember(actor.ID) {
		return domain.ErrProjectNotFound
	}
	if project.OwnerID != actor.ID {
		return domain.ErrForbidden
	}
	return uc.projects.Delete(ctx, id)
}

// RemoveMember drops a membership. Owners and admins may remove anyone
// but the owner; the owner is not a removable member.
func (uc *UseCase) RemoveMember(ctx context.Context, actor domain.Identity, projectID, userID string) error {
	project, err := uc.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.HasMember(actor.ID) {
		return domain.ErrProjectNotFound
	}
	if !project.CanManage(actor.ID) {
		return domain.ErrForbidden
	}
	if userID == project.OwnerID {
		return domain.NewError(domain.ErrCodeInvalid, "the project owner cannot be removed")
	}

	if err := uc.projects.RemoveMember(ctx, projectID, userID); err != nil {
		return err
	}

	if uc.notifier != nil {
		event := domain.NewNotification(domain.NotifyMemberRemoved, map[string]string{
			"project_id": projectID,
			"user_id":    userID,
		})
		uc.notifier.NotifyProject(ctx, projectID, actor.ID, event)
		uc.notifier.NotifyUser(ctx, userID, event)
	}
	return nil
}
