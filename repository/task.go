package repository

import (
	"context"

	"github.com/synergysphere/backend/domain"
)

type TaskFilter struct {
	ProjectID  string
	AssigneeID string
	Status     string
	// VisibleTo restricts results to projects the user owns or belongs to.
	// Applied when no explicit project filter is given.
	VisibleTo string
	Page      int
	Limit     int
}

// TaskPatch carries the mutable fields of an update; nil means "leave as is".
type TaskPatch struct {
	Title          *string
	Description    *string
	AssigneeID     *string
	Status         *string
	Priority       *string
	DueDate        *string
	Tags           *[]string
	EstimatedHours *float64
	ActualHours    *float64
	Dependencies   *[]string
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, int, error)
	// Create inserts the task and bumps the project's total counter in the
	// same transaction.
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// Update applies the patch and, when the status crosses the done edge,
	// moves the project's completed counter in the same transaction. The
	// task row is locked for the duration so two concurrent updates cannot
	// both observe the pre-transition status.
	Update(ctx context.Context, id string, patch TaskPatch) (*domain.Task, error)
	// Delete removes the task, decrementing total (and completed when the
	// task was done) transactionally.
	Delete(ctx context.Context, id string) (*domain.Task, error)
	AddComment(ctx context.Context, taskID string, comment *domain.Comment) error
}
