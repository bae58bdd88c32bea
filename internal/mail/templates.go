package mail

import (
	"fmt"
	"strings"

	"github.com/synergysphere/backend/internal/infrastructure/outbox"
)

// Templates renders the three outbound email types. Every template embeds
// a deep link back to the browser client carrying the one-time token.
type Templates struct {
	clientOrigin string
}

// NewTemplates binds rendering to the configured client origin.
func NewTemplates(clientOrigin string) *Templates {
	return &Templates{clientOrigin: strings.TrimRight(clientOrigin, "/")}
}

// Render produces the subject and HTML body for an outbox message.
func (t *Templates) Render(msg outbox.Message) (subject, html string, err error) {
	switch msg.Kind {
	case outbox.KindConfirmation:
		return t.confirmation(msg.Params["name"], msg.Params["token"])
	case outbox.KindPasswordReset:
		return t.passwordReset(msg.Params["name"], msg.Params["token"])
	case outbox.KindInvitation:
		return t.invitation(msg.Params["name"], msg.Params["project"], msg.Params["inviter"], msg.Params["token"])
	default:
		return "", "", fmt.Errorf("unknown email kind %q", msg.Kind)
	}
}

func (t *Templates) confirmation(name, token string) (string, string, error) {
	link := fmt.Sprintf("%s/confirm-email?token=%s", t.clientOrigin, token)
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome to SynergySphere!</h2>
  <p>Hi %s,</p>
  <p>Thank you for registering with SynergySphere. Please confirm your email address by clicking the link below:</p>
  <p><a href="%s">Confirm Email Address</a></p>
  <p>This link will expire in 24 hours.</p>
  <p>If you didn't create an account with us, please ignore this email.</p>
</div>`, htmlEscape(name), link)
	return "Confirm Your Email Address", body, nil
}

func (t *Templates) passwordReset(name, token string) (string, string, error) {
	link := fmt.Sprintf("%s/reset-password?token=%s", t.clientOrigin, token)
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Password Reset Request</h2>
  <p>Hi %s,</p>
  <p>You requested to reset your password for your SynergySphere account. Click the link below to reset it:</p>
  <p><a href="%s">Reset Password</a></p>
  <p>This link will expire in 1 hour.</p>
  <p>If you didn't request a password reset, please ignore this email.</p>
</div>`, htmlEscape(name), link)
	return "Reset Your Password", body, nil
}

func (t *Templates) invitation(name, project, inviter, token string) (string, string, error) {
	link := fmt.Sprintf("%s/invitations?token=%s", t.clientOrigin, token)
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Project Invitation</h2>
  <p>Hi %s,</p>
  <p>%s has invited you to collaborate on the project "<strong>%s</strong>" in SynergySphere.</p>
  <p><a href="%s">View Invitation</a></p>
  <p>If you don't have an account yet, you'll need to register first before accepting the invitation.</p>
  <p>This invitation will expire in 7 days.</p>
</div>`, htmlEscape(name), htmlEscape(inviter), htmlEscape(project), link)
	return fmt.Sprintf("You're invited to join %q", project), body, nil
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}
