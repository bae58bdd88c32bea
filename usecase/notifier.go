package usecase

import (
	"context"

	"github.com/synergysphere/backend/domain"
)

// Notifier is the port into the realtime fanout. Implementations are
// fire-and-forget; callers never learn about delivery failures.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, n domain.Notification)
	NotifyProject(ctx context.Context, projectID, excludeUserID string, n domain.Notification)
}

// Mailer is the port into the outbound email queue. All methods only
// enqueue; delivery happens on the outbox schedule.
type Mailer interface {
	Confirmation(to, name, token string)
	PasswordReset(to, name, token string)
	Invitation(to, name, project, inviter, token string)
}
