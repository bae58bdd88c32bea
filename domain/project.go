package domain

import "time"

// Member roles. Ownership is not a role: the owner is tracked on the
// project record itself and never appears in the member set.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// ValidRole reports whether the given role may be granted to a member.
func ValidRole(role string) bool {
	return role == RoleMember || role == RoleAdmin
}

// Member is a (user, role) pair granting project access short of ownership.
type Member struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email,omitempty"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Project represents a collaboration space owning tasks and attachments.
type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	OwnerID        string    `json:"owner_id"`
	Members        []Member  `json:"members,omitempty"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MemberCount counts the owner alongside the member set. The owner is
// always a full participant, so displays use len(members)+1 uniformly.
func (p *Project) MemberCount() int {
	if p == nil {
		return 0
	}
	return len(p.Members) + 1
}

// HasMember reports whether the user is the owner or holds a membership.
func (p *Project) HasMember(userID string) bool {
	if p == nil || userID == "" {
		return false
	}
	if p.OwnerID == userID {
		return true
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// CanManage reports whether the user may administer the project
// (send invitations, remove members, list invitations).
func (p *Project) CanManage(userID string) bool {
	if p == nil || userID == "" {
		return false
	}
	if p.OwnerID == userID {
		return true
	}
	for _, m := range p.Members {
		if m.UserID == userID && m.Role == RoleAdmin {
			return true
		}
	}
	return false
}
