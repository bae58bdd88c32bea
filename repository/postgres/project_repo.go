package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/repository"
)

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository returns a Postgres-backed implementation of ProjectRepository.
func NewProjectRepository(pool *pgxpool.Pool) repository.ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	const query = `
	SELECT id, name, description, owner_id, total_tasks, completed_tasks, created_at, updated_at
	FROM projects
	WHERE id = $1
	`
	var p domain.Project
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.OwnerID,
		&p.TotalTasks, &p.CompletedTasks, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}

	members, err := r.members(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Members = members
	return &p, nil
}

func (r *projectRepository) ListForUser(ctx context.Context, userID string) ([]domain.Project, error) {
	const query = `
	SELECT DISTINCT p.id, p.name, p.description, p.owner_id,
		p.total_tasks, p.completed_tasks, p.created_at, p.updated_at
	FROM projects p
	LEFT JOIN project_members m ON m.project_id = p.id
	WHERE p.owner_id = $1 OR m.user_id = $1
	ORDER BY p.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.OwnerID,
			&p.TotalTasks, &p.CompletedTasks, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		members, err := r.members(ctx, projects[i].ID)
		if err != nil {
			return nil, err
		}
		projects[i].Members = members
	}
	return projects, nil
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	if project == nil {
		return domain.ErrInvalidPayload
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO projects (id, name, description, owner_id)
	VALUES ($1, $2, $3, $4)
	RETURNING total_tasks, completed_tasks, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.OwnerID,
	).Scan(&project.TotalTasks, &project.CompletedTasks, &project.CreatedAt, &project.UpdatedAt)
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	if project == nil {
		return domain.ErrInvalidPayload
	}
	const query = `
	UPDATE projects
	SET name = $2, description = $3, updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, project.ID, project.Name, project.Description).
		Scan(&project.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProjectNotFound
		}
		return err
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	// Members, tasks, comments, invitations and attachment records cascade
	// through the schema's foreign keys.
	const query = `DELETE FROM projects WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *projectRepository) AddMember(ctx context.Context, projectID string, member domain.Member) (bool, error) {
	// Idempotent by the (project_id, user_id) primary key: a concurrent
	// duplicate insert becomes a no-op rather than a second membership.
	const query = `
	INSERT INTO project_members (project_id, user_id, role, joined_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (project_id, user_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, projectID, member.UserID, member.Role, member.JoinedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *projectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	const query = `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, projectID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *projectRepository) members(ctx context.Context, projectID string) ([]domain.Member, error) {
	const query = `
	SELECT m.user_id, u.name, u.email, m.role, m.joined_at
	FROM project_members m
	JOIN users u ON u.id = m.user_id
	WHERE m.project_id = $1
	ORDER BY m.joined_at
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
