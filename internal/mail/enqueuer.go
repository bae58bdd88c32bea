package mail

import (
	"go.uber.org/zap"

	"github.com/synergysphere/backend/internal/infrastructure/outbox"
)

// Enqueuer is the request-path face of outbound email: it only writes to
// the outbox and returns. Callers treat failures as log-and-continue;
// email trouble never fails the triggering operation.
type Enqueuer struct {
	store  *outbox.Store
	logger *zap.Logger
}

func NewEnqueuer(store *outbox.Store, logger *zap.Logger) *Enqueuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enqueuer{store: store, logger: logger}
}

// Confirmation queues the email-confirmation message.
func (e *Enqueuer) Confirmation(to, name, token string) {
	e.enqueue(outbox.Message{
		Kind: outbox.KindConfirmation,
		To:   to,
		Params: map[string]string{
			"name":  name,
			"token": token,
		},
	})
}

// PasswordReset queues the reset message.
func (e *Enqueuer) PasswordReset(to, name, token string) {
	e.enqueue(outbox.Message{
		Kind: outbox.KindPasswordReset,
		To:   to,
		Params: map[string]string{
			"name":  name,
			"token": token,
		},
	})
}

// Invitation queues the project-invitation message.
func (e *Enqueuer) Invitation(to, name, project, inviter, token string) {
	e.enqueue(outbox.Message{
		Kind: outbox.KindInvitation,
		To:   to,
		Params: map[string]string{
			"name":    name,
			"project": project,
			"inviter": inviter,
			"token":   token,
		},
	})
}

func (e *Enqueuer) enqueue(msg outbox.Message) {
	if e == nil || e.store == nil {
		return
	}
	if err := e.store.Enqueue(msg); err != nil {
		e.logger.Error("failed to enqueue email",
			zap.String("kind", msg.Kind),
			zap.Error(err))
	}
}
