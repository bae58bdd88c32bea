package task

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

// CreateInput carries the caller-supplied fields of a new task.
type CreateInput struct {
	ProjectID      string
	Title          string
	Description    string
	AssigneeID     string
	Status         string
	Priority       string
	DueDate        string
	Tags           []string
	EstimatedHours *float64
	Dependencies   []string
}

type UseCase struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	notifier usecase.Notifier
	logger   *zap.Logger
}

func New(tasks repository.TaskRepository, projects repository.ProjectRepository, notifier usecase.Notifier, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		projects: projects,
		notifier: notifier,
		logger:   logger,
	}
}

// Create inserts a task into a project the actor participates in. The
// project's total counter moves in the same transaction as the insert.
func (uc *UseCase) Create(ctx context.Context, actor domain.Identity, in CreateInput) (*domain.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "task title is required")
	}
	if in.ProjectID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "project id is required")
	}

	project, err := uc.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(actor.ID) {
		return nil, domain.ErrForbidden
	}

	if in.Status == "" {
		in.Status = domain.TaskStatusTodo
	}
	if !domain.ValidTaskStatus(in.Status) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown task status")
	}
	if in.Priority == "" {
		in.Priority = domain.TaskPriorityMedium
	}
	if !domain.ValidTaskPriority(in.Priority) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown task priority")
	}
	if in.AssigneeID == "" {
		in.AssigneeID = actor.ID
	} else if !project.HasMember(in.AssigneeID) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "assignee is not a project member")
	}

	var due *time.Time
	if in.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, in.DueDate)
		if err != nil {
			return nil, domain.NewError(domain.ErrCodeInvalid, "due date must be RFC 3339")
		}
		due = &parsed
	}

	now := time.Now()
	task := &domain.Task{
		ID:             uuid.NewString(),
		ProjectID:      in.ProjectID,
		Title:          in.Title,
		Description:    strings.TrimSpace(in.Description),
		AssigneeID:     in.AssigneeID,
		CreatedBy:      actor.ID,
		Status:         in.Status,
		Priority:       in.Priority,
		DueDate:        due,
		Tags:           in.Tags,
		EstimatedHours: in.EstimatedHours,
		Dependencies:   in.Dependencies,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	uc.notifyProject(ctx, created.ProjectID, actor.ID, domain.NotifyTaskCreated, created)
	return created, nil
}

// Get returns the task when the actor participates in its project.
func (uc *UseCase) Get(ctx context.Context, actor domain.Identity, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := uc.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(actor.ID) {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

// List applies the filter within the actor's visibility: an explicit
// project filter requires membership, otherwise results span all of the
// actor's projects.
func (uc *UseCase) List(ctx context.Context, actor domain.Identity, filter repository.TaskFilter) ([]domain.Task, int, error) {
	if filter.Status != "" && !domain.ValidTaskStatus(filter.Status) {
		return nil, 0, domain.NewError(domain.ErrCodeInvalid, "unknown task status")
	}
	if filter.ProjectID != "" {
		project, err := uc.projects.GetByID(ctx, filter.ProjectID)
		if err != nil {
			return nil, 0, err
		}
		if !project.HasMember(actor.ID) {
			return nil, 0, domain.ErrForbidden
		}
	} else {
		filter.VisibleTo = actor.ID
	}
	return uc.tasks.List(ctx, filter)
}

// Mine lists the actor's assigned tasks across all accessible projects.
func (uc *UseCase) Mine(ctx context.Context, actor domain.Identity, page, limit int) ([]domain.Task, int, error) {
	return uc.tasks.List(ctx, repository.TaskFilter{
		AssigneeID: actor.ID,
		VisibleTo:  actor.ID,
		Page:       page,
		Limit:      limit,
	})
}

// Update patches the task. A status change through the done edge moves
// the project's completed counter inside the repository transaction.
func (uc *UseCase) Update(ctx context.Context, actor domain.Identity, id string, patch repository.TaskPatch) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	project, err := uc.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(actor.ID) {
		return nil, domain.ErrForbidden
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "task title is required")
	}
	if patch.Status != nil && !domain.ValidTaskStatus(*patch.Status) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown task status")
	}
	if patch.Priority != nil && !domain.ValidTaskPriority(*patch.Priority) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown task priority")
	}
	if patch.DueDate != nil && *patch.DueDate != "" {
		if _, err := time.Parse(time.RFC3339, *patch.DueDate); err != nil {
			return nil, domain.NewError(domain.ErrCodeInvalid, "due date must be RFC 3339")
		}
	}
	if patch.AssigneeID != nil && *patch.AssigneeID != "" && !project.HasMember(*patch.AssigneeID) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "assignee is not a project member")
	}

	updated, err := uc.tasks.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	uc.notifyProject(ctx, updated.ProjectID, actor.ID, domain.NotifyTaskUpdated, updated)
	return updated, nil
}

// Delete removes a task. Only the project owner and the task creator may
// delete; counters are adjusted transactionally by the repository.
func (uc *UseCase) Delete(ctx context.Context, actor domain.Identity, id string) error {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	project, err := uc.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return err
	}
	if actor.ID != project.OwnerID && actor.ID != task.CreatedBy {
		return domain.ErrForbidden
	}

	deleted, err := uc.tasks.Delete(ctx, id)
	if err != nil {
		return err
	}

	uc.notifyProject(ctx, deleted.ProjectID, actor.ID, domain.NotifyTaskDeleted, map[string]string{
		"task_id":    deleted.ID,
		"project_id": deleted.ProjectID,
	})
	return nil
}

// AddComment appends a discussion entry to the task.
func (uc *UseCase) AddComment(ctx context.Context, actor domain.Identity, taskID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "comment content is required")
	}

	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	project, err := uc.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(actor.ID) {
		return nil, domain.ErrForbidden
	}

	comment := &domain.Comment{
		ID:        uuid.NewString(),
		UserID:    actor.ID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := uc.tasks.AddComment(ctx, taskID, comment); err != nil {
		return nil, err
	}

	uc.notifyProject(ctx, task.ProjectID, actor.ID, domain.NotifyTaskCommented, map[string]interface{}{
		"task_id": taskID,
		"comment": comment,
	})
	return comment, nil
}

func (uc *UseCase) notifyProject(ctx context.Context, projectID, actorID, eventType string, payload interface{}) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.NotifyProject(ctx, projectID, actorID, domain.NewNotification(eventType, payload))
}
