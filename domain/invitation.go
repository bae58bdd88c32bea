package domain

import "time"

// Invitation statuses. pending is the only state a token can be consumed
// from; the transition out of pending happens at most once per token.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
	InvitationExpired  = "expired"
)

// InvitationTTL is the validity window of a fresh invitation.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation is a membership offer for a (project, email) pair.
type Invitation struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	ProjectName string     `json:"project_name,omitempty"`
	InvitedBy   string     `json:"invited_by"`
	InviterName string     `json:"inviter_name,omitempty"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Token       string     `json:"-"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Consumable reports whether the invitation can still be accepted or
// declined. Expiry is checked on every read, whether or not the reaper
// has already swept the record.
func (i *Invitation) Consumable(reference time.Time) bool {
	if i == nil {
		return false
	}
	return i.Status == InvitationPending && i.ExpiresAt.After(reference)
}
