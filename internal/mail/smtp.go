package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/synergysphere/backend/internal/config"
)

// Sender delivers a rendered email. Implementations are swapped out in
// tests for a recording fake.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type smtpSender struct {
	cfg config.EmailConfig
}

// NewSMTPSender builds a Sender backed by the configured SMTP relay.
func NewSMTPSender(cfg config.EmailConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(to, subject, htmlBody string) error {
	addr := s.cfg.Host + ":" + s.cfg.Port

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %q <%s>\r\n", s.cfg.FromName, s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(b.String()))
}
