package domain

import "time"

// Task statuses. Transitions are free-form; only the edge into or out of
// done moves the project's completed counter.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"
)

// Task priorities.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// ValidTaskStatus reports whether status is a known task status.
func ValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

// ValidTaskPriority reports whether priority is a known task priority.
func ValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Comment is a single task discussion entry.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Task represents a unit of work scoped to a single project.
type Task struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	AssigneeID     string     `json:"assignee_id,omitempty"`
	CreatedBy      string     `json:"created_by"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	ActualHours    *float64   `json:"actual_hours,omitempty"`
	Comments       []Comment  `json:"comments,omitempty"`
	Dependencies   []string   `json:"dependencies,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (t *Task) IsDone() bool {
	return t != nil && t.Status == TaskStatusDone
}

// IsOverdue reports whether the task is past due and not done.
func (t *Task) IsOverdue(reference time.Time) bool {
	if t == nil || t.DueDate == nil || t.Status == TaskStatusDone {
		return false
	}
	return t.DueDate.Before(reference)
}
