package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/repository"
)

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository returns SQL-backed rollups for the analytics endpoints.
func NewAnalyticsRepository(pool *pgxpool.Pool) repository.AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) ProjectStats(ctx context.Context, projectID string, now time.Time) (*repository.ProjectAnalytics, error) {
	stats := &repository.ProjectAnalytics{
		TasksByStatus:   emptyStatusBuckets(),
		TasksByPriority: emptyPriorityBuckets(),
	}

	if err := r.groupCount(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE project_id = $1 GROUP BY status`,
		stats.TasksByStatus, projectID); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx,
		`SELECT priority, COUNT(*) FROM tasks WHERE project_id = $1 GROUP BY priority`,
		stats.TasksByPriority, projectID); err != nil {
		return nil, err
	}

	const overdue = `
	SELECT COUNT(*) FROM tasks
	WHERE project_id = $1 AND due_date < $2 AND status <> 'done'
	`
	if err := r.pool.QueryRow(ctx, overdue, projectID, now).Scan(&stats.Overdue); err != nil {
		return nil, err
	}

	trend, err := r.completionTrend(ctx,
		`SELECT to_char(updated_at, 'YYYY-MM-DD') AS day, COUNT(*)
		 FROM tasks
		 WHERE project_id = $1 AND status = 'done' AND updated_at >= $2
		 GROUP BY day ORDER BY day`,
		projectID, now.Add(-30*24*time.Hour))
	if err != nil {
		return nil, err
	}
	stats.CompletionTrend = trend

	memberStats, err := r.memberStats(ctx, projectID)
	if err != nil {
		return nil, err
	}
	stats.MemberStats = memberStats

	const attachments = `
	SELECT COUNT(*), COALESCE(SUM(size), 0) FROM attachments WHERE project_id = $1
	`
	if err := r.pool.QueryRow(ctx, attachments, projectID).
		Scan(&stats.AttachmentCount, &stats.AttachmentBytes); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *analyticsRepository) UserStats(ctx context.Context, userID string, now time.Time) (*repository.UserAnalytics, error) {
	stats := &repository.UserAnalytics{
		TasksByStatus: emptyStatusBuckets(),
	}

	const projects = `
	SELECT
		(SELECT COUNT(*) FROM projects WHERE owner_id = $1),
		(SELECT COUNT(*) FROM project_members WHERE user_id = $1)
	`
	if err := r.pool.QueryRow(ctx, projects, userID).
		Scan(&stats.OwnedProjects, &stats.MemberProjects); err != nil {
		return nil, err
	}

	if err := r.groupCount(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE assignee_id = $1 GROUP BY status`,
		stats.TasksByStatus, userID); err != nil {
		return nil, err
	}

	const overdue = `
	SELECT COUNT(*) FROM tasks
	WHERE assignee_id = $1 AND due_date < $2 AND status <> 'done'
	`
	if err := r.pool.QueryRow(ctx, overdue, userID, now).Scan(&stats.Overdue); err != nil {
		return nil, err
	}

	trend, err := r.completionTrend(ctx,
		`SELECT to_char(updated_at, 'YYYY-MM-DD') AS day, COUNT(*)
		 FROM tasks
		 WHERE assignee_id = $1 AND status = 'done' AND updated_at >= $2
		 GROUP BY day ORDER BY day`,
		userID, now.Add(-30*24*time.Hour))
	if err != nil {
		return nil, err
	}
	stats.CompletionTrend = trend

	const recent = `SELECT` + taskColumns + `
	FROM tasks
	WHERE assignee_id = $1 AND updated_at >= $2
	ORDER BY updated_at DESC
	LIMIT 10`
	rows, err := r.pool.Query(ctx, recent, userID, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		stats.RecentTasks = append(stats.RecentTasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *analyticsRepository) PlatformStats(ctx context.Context, now time.Time) (*repository.PlatformAnalytics, error) {
	stats := &repository.PlatformAnalytics{}
	cutoff := now.Add(-30 * 24 * time.Hour)

	const query = `
	SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM projects),
		(SELECT COUNT(*) FROM tasks),
		(SELECT COUNT(*) FROM attachments),
		(SELECT COUNT(*) FROM users WHERE created_at >= $1),
		(SELECT COUNT(*) FROM projects WHERE created_at >= $1)
	`
	if err := r.pool.QueryRow(ctx, query, cutoff).Scan(
		&stats.TotalUsers,
		&stats.TotalProjects,
		&stats.TotalTasks,
		&stats.TotalAttachments,
		&stats.NewUsers30d,
		&stats.NewProjects30d,
	); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *analyticsRepository) groupCount(ctx context.Context, query string, dest map[string]int, args ...interface{}) error {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		if _, known := dest[key]; known {
			dest[key] = count
		}
	}
	return rows.Err()
}

func (r *analyticsRepository) completionTrend(ctx context.Context, query string, args ...interface{}) ([]repository.TrendPoint, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trend []repository.TrendPoint
	for rows.Next() {
		var point repository.TrendPoint
		if err := rows.Scan(&point.Date, &point.Count); err != nil {
			return nil, err
		}
		trend = append(trend, point)
	}
	return trend, rows.Err()
}

func (r *analyticsRepository) memberStats(ctx context.Context, projectID string) ([]repository.MemberTaskStats, error) {
	const query = `
	SELECT t.assignee_id, u.name, u.email,
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE t.status = 'done') AS completed,
		COUNT(*) FILTER (WHERE t.status = 'in-progress') AS in_progress
	FROM tasks t
	JOIN users u ON u.id = t.assignee_id
	WHERE t.project_id = $1 AND t.assignee_id IS NOT NULL
	GROUP BY t.assignee_id, u.name, u.email
	ORDER BY total DESC
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []repository.MemberTaskStats
	for rows.Next() {
		var m repository.MemberTaskStats
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.TotalTasks, &m.CompletedTasks, &m.InProgress); err != nil {
			return nil, err
		}
		if m.TotalTasks > 0 {
			m.CompletionRate = float64(m.CompletedTasks) / float64(m.TotalTasks) * 100
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func emptyStatusBuckets() map[string]int {
	return map[string]int{
		domain.TaskStatusTodo:       0,
		domain.TaskStatusInProgress: 0,
		domain.TaskStatusReview:     0,
		domain.TaskStatusDone:       0,
	}
}

func emptyPriorityBuckets() map[string]int {
	return map[string]int{
		domain.TaskPriorityLow:    0,
		domain.TaskPriorityMedium: 0,
		domain.TaskPriorityHigh:   0,
		domain.TaskPriorityUrgent: 0,
	}
}
