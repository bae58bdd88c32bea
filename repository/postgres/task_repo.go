package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/repository"
)

const taskColumns = `
	id, project_id, title, description, assignee_id, created_by,
	status, priority, due_date, tags, estimated_hours, actual_hours,
	dependencies, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	comments, err := r.comments(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Comments = comments
	return task, nil
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, int, error) {
	// VisibleTo only applies when no explicit project is requested; the
	// caller has already authorized the explicit project case.
	const baseWhere = `
	WHERE ($1 = '' OR t.project_id = $1)
	  AND ($2 = '' OR t.status = $2)
	  AND ($3 = '' OR t.assignee_id = $3)
	  AND ($1 <> '' OR $4 = '' OR t.project_id IN (
			SELECT p.id FROM projects p WHERE p.owner_id = $4
			UNION
			SELECT m.project_id FROM project_members m WHERE m.user_id = $4
	  ))`

	const query = `SELECT` + taskColumns + ` FROM tasks t` + baseWhere + `
	ORDER BY t.created_at DESC
	LIMIT $5 OFFSET $6`

	limit := clampLimit(filter.Limit)
	offset := pageOffset(filter.Page, limit)

	rows, err := r.pool.Query(ctx, query,
		filter.ProjectID, filter.Status, filter.AssigneeID, filter.VisibleTo, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	const countQuery = `SELECT COUNT(*) FROM tasks t` + baseWhere
	var total int
	if err := r.pool.QueryRow(ctx, countQuery,
		filter.ProjectID, filter.Status, filter.AssigneeID, filter.VisibleTo).Scan(&total); err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	if task.Dependencies == nil {
		task.Dependencies = []string{}
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insert = `
		INSERT INTO tasks (id, project_id, title, description, assignee_id, created_by,
			status, priority, due_date, tags, estimated_hours, actual_hours, dependencies)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
		`
		if err := tx.QueryRow(ctx, insert,
			task.ID,
			task.ProjectID,
			task.Title,
			task.Description,
			nullString(task.AssigneeID),
			task.CreatedBy,
			task.Status,
			task.Priority,
			nullTime(task.DueDate),
			task.Tags,
			task.EstimatedHours,
			task.ActualHours,
			task.Dependencies,
		).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
			return err
		}

		const bump = `UPDATE projects SET total_tasks = total_tasks + 1, updated_at = NOW() WHERE id = $1`
		_, err := tx.Exec(ctx, bump, task.ProjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, patch repository.TaskPatch) (*domain.Task, error) {
	var updated *domain.Task

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Lock the row so the done-edge decision and the counter move are
		// atomic with respect to concurrent updates of the same task.
		const lock = `SELECT` + taskColumns + ` FROM tasks WHERE id = $1 FOR UPDATE`
		current, err := scanTask(tx.QueryRow(ctx, lock, id))
		if err != nil {
			return err
		}

		next := applyPatch(*current, patch)

		const update = `
		UPDATE tasks
		SET title = $2, description = $3, assignee_id = $4, status = $5,
			priority = $6, due_date = $7, tags = $8, estimated_hours = $9,
			actual_hours = $10, dependencies = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
		`
		if err := tx.QueryRow(ctx, update,
			next.ID,
			next.Title,
			next.Description,
			nullString(next.AssigneeID),
			next.Status,
			next.Priority,
			nullTime(next.DueDate),
			next.Tags,
			next.EstimatedHours,
			next.ActualHours,
			next.Dependencies,
		).Scan(&next.UpdatedAt); err != nil {
			return err
		}

		// Counters move exactly once per crossing of the done edge; a no-op
		// status write leaves them alone.
		wasDone := current.Status == domain.TaskStatusDone
		isDone := next.Status == domain.TaskStatusDone
		if wasDone != isDone {
			delta := 1
			if wasDone {
				delta = -1
			}
			const adjust = `UPDATE projects SET completed_tasks = completed_tasks + $2, updated_at = NOW() WHERE id = $1`
			if _, err := tx.Exec(ctx, adjust, next.ProjectID, delta); err != nil {
				return err
			}
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	comments, err := r.comments(ctx, id)
	if err != nil {
		return nil, err
	}
	updated.Comments = comments
	return updated, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	var deleted *domain.Task

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const del = `DELETE FROM tasks WHERE id = $1 RETURNING` + taskColumns
		task, err := scanTask(tx.QueryRow(ctx, del, id))
		if err != nil {
			return err
		}

		completedDelta := 0
		if task.Status == domain.TaskStatusDone {
			completedDelta = -1
		}
		const adjust = `
		UPDATE projects
		SET total_tasks = total_tasks - 1,
			completed_tasks = completed_tasks + $2,
			updated_at = NOW()
		WHERE id = $1
		`
		if _, err := tx.Exec(ctx, adjust, task.ProjectID, completedDelta); err != nil {
			return err
		}

		deleted = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (r *taskRepository) AddComment(ctx context.Context, taskID string, comment *domain.Comment) error {
	if comment == nil {
		return domain.ErrInvalidPayload
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO task_comments (id, task_id, user_id, content)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at
	`
	return r.pool.QueryRow(ctx, query, comment.ID, taskID, comment.UserID, comment.Content).
		Scan(&comment.CreatedAt)
}

func (r *taskRepository) comments(ctx context.Context, taskID string) ([]domain.Comment, error) {
	const query = `
	SELECT id, user_id, content, created_at
	FROM task_comments
	WHERE task_id = $1
	ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func applyPatch(task domain.Task, patch repository.TaskPatch) domain.Task {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.AssigneeID != nil {
		task.AssigneeID = *patch.AssigneeID
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		if *patch.DueDate == "" {
			task.DueDate = nil
		} else if parsed, err := time.Parse(time.RFC3339, *patch.DueDate); err == nil {
			task.DueDate = &parsed
		}
	}
	if patch.Tags != nil {
		task.Tags = *patch.Tags
	}
	if patch.EstimatedHours != nil {
		task.EstimatedHours = patch.EstimatedHours
	}
	if patch.ActualHours != nil {
		task.ActualHours = patch.ActualHours
	}
	if patch.Dependencies != nil {
		task.Dependencies = *patch.Dependencies
	}
	return task
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task       domain.Task
		assigneeID *string
		due        *time.Time
	)
	if err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&assigneeID,
		&task.CreatedBy,
		&task.Status,
		&task.Priority,
		&due,
		&task.Tags,
		&task.EstimatedHours,
		&task.ActualHours,
		&task.Dependencies,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	task.AssigneeID = derefString(assigneeID)
	task.DueDate = due
	return &task, nil
}
