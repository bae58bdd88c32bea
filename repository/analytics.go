package repository

import (
	"context"
	"time"

	"github.com/synergysphere/backend/domain"
)

// TrendPoint is a day-bucketed completion count.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// MemberTaskStats summarizes one member's task load within a project.
type MemberTaskStats struct {
	UserID         string  `json:"user_id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	InProgress     int     `json:"in_progress_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

// ProjectAnalytics aggregates the dashboard numbers for one project.
type ProjectAnalytics struct {
	TasksByStatus   map[string]int    `json:"tasks_by_status"`
	TasksByPriority map[string]int    `json:"tasks_by_priority"`
	Overdue         int               `json:"overdue"`
	CompletionTrend []TrendPoint      `json:"completion_trend"`
	MemberStats     []MemberTaskStats `json:"member_stats"`
	AttachmentCount int               `json:"attachment_count"`
	AttachmentBytes int64             `json:"attachment_bytes"`
}

// UserAnalytics aggregates a user's personal dashboard numbers.
type UserAnalytics struct {
	OwnedProjects   int            `json:"owned_projects"`
	MemberProjects  int            `json:"member_projects"`
	TasksByStatus   map[string]int `json:"tasks_by_status"`
	Overdue         int            `json:"overdue"`
	CompletionTrend []TrendPoint   `json:"completion_trend"`
	RecentTasks     []domain.Task  `json:"recent_tasks"`
}

// PlatformAnalytics is the instance-wide rollup.
type PlatformAnalytics struct {
	TotalUsers       int `json:"total_users"`
	TotalProjects    int `json:"total_projects"`
	TotalTasks       int `json:"total_tasks"`
	TotalAttachments int `json:"total_attachments"`
	NewUsers30d      int `json:"new_users_30d"`
	NewProjects30d   int `json:"new_projects_30d"`
}

type AnalyticsRepository interface {
	ProjectStats(ctx context.Context, projectID string, now time.Time) (*ProjectAnalytics, error)
	UserStats(ctx context.Context, userID string, now time.Time) (*UserAnalytics, error)
	PlatformStats(ctx context.Context, now time.Time) (*PlatformAnalytics, error)
}
