package domain

import "time"

// User represents a registered identity in the platform.
//
// The password hash and the one-time confirmation/reset tokens never leave
// the server: they are json-omitted here and stripped by the repositories
// on every read path that feeds a response.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	IsEmailConfirmed bool       `json:"is_email_confirmed"`
	ConfirmToken     string     `json:"-"`
	ConfirmExpires   *time.Time `json:"-"`
	ResetToken       string     `json:"-"`
	ResetExpires     *time.Time `json:"-"`
	Avatar           string     `json:"avatar,omitempty"`
	IsActive         bool       `json:"is_active"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Identity is the slice of a user attached to authenticated requests.
type Identity struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	IsEmailConfirmed bool   `json:"is_email_confirmed"`
}

func (u *User) Active() bool {
	return u != nil && u.IsActive
}

func (u *User) Identity() Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		IsEmailConfirmed: u.IsEmailConfirmed,
	}
}
