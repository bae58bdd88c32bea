package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Message kinds; each maps to an email template.
const (
	KindConfirmation  = "confirmation"
	KindPasswordReset = "password-reset"
	KindInvitation    = "invitation"
)

// Message is an outbound email waiting to be delivered. Requests enqueue
// and return; a background processor owns delivery and retries.
type Message struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	To        string            `json:"to"`
	Params    map[string]string `json:"params"`
	Attempts  int               `json:"attempts"`
	Timestamp time.Time         `json:"timestamp"`

	bucketKey []byte
}

func (m *Message) normalize() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
}
