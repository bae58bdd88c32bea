package transport

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ConfirmEmailRequest struct {
	Token string `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type UpdateAvatarRequest struct {
	Avatar string `json:"avatar"`
}

type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type InvitationResponseRequest struct {
	Token string `json:"token"`
}

type TaskCreateRequest struct {
	ProjectID      string   `json:"project_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	AssigneeID     string   `json:"assignee_id"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority"`
	DueDate        string   `json:"due_date"`
	Tags           []string `json:"tags"`
	EstimatedHours *float64 `json:"estimated_hours"`
	Dependencies   []string `json:"dependencies"`
}

// TaskUpdateRequest uses pointers so absent fields are left untouched.
// An explicit empty due_date clears the deadline.
type TaskUpdateRequest struct {
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	AssigneeID     *string   `json:"assignee_id"`
	Status         *string   `json:"status"`
	Priority       *string   `json:"priority"`
	DueDate        *string   `json:"due_date"`
	Tags           *[]string `json:"tags"`
	EstimatedHours *float64  `json:"estimated_hours"`
	ActualHours    *float64  `json:"actual_hours"`
	Dependencies   *[]string `json:"dependencies"`
}

type CommentRequest struct {
	Content string `json:"content"`
}
