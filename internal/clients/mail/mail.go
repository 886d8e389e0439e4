// Package mail sends the portal's transactional email: password reset codes
// and alumni approval outcomes.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"alumni-portal/internal/config"

	"github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 10 * time.Second

// transport delivers one plain-text message.
type transport interface {
	deliver(ctx context.Context, to, subject, body string) error
}

// Notifier renders and sends portal emails. It satisfies auth.Mailer and
// admin.Mailer.
type Notifier struct {
	t   transport
	log *slog.Logger
}

// New returns a Mailgun-backed Notifier when mail is configured and a
// log-only one otherwise.
func New(cfg config.Config, log *slog.Logger) *Notifier {
	if !cfg.MailEnabled() {
		log.Warn("mail not configured, emails will only be logged")
		return &Notifier{t: logTransport{log: log}, log: log}
	}
	mg := mailgun.NewMailgun(cfg.MailgunDomain, cfg.EmailPass)
	return &Notifier{t: &mailgunTransport{mg: mg, from: cfg.EmailUser}, log: log}
}

// SendOTP mails a password reset code valid for ttl.
func (n *Notifier) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	subject, body := otpMessage(code, ttl)
	return n.send(ctx, to, subject, body)
}

// SendApproval tells an alumni their account was approved.
func (n *Notifier) SendApproval(ctx context.Context, to, name string) error {
	subject, body := approvalMessage(name)
	return n.send(ctx, to, subject, body)
}

// SendRejection tells an applicant their alumni registration was declined.
func (n *Notifier) SendRejection(ctx context.Context, to, name string) error {
	subject, body := rejectionMessage(name)
	return n.send(ctx, to, subject, body)
}

func (n *Notifier) send(ctx context.Context, to, subject, body string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := n.t.deliver(ctx, to, subject, body); err != nil {
		n.log.Error("failed to send email", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("send email: %w", err)
	}
	n.log.Debug("email sent", "to", to, "subject", subject)
	return nil
}

type mailgunTransport struct {
	mg   mailgun.Mailgun
	from string
}

func (m *mailgunTransport) deliver(ctx context.Context, to, subject, body string) error {
	msg := m.mg.NewMessage(m.from, subject, body, to)
	_, _, err := m.mg.Send(ctx, msg)
	return err
}

// logTransport stands in for a real provider in development.
type logTransport struct {
	log *slog.Logger
}

func (l logTransport) deliver(_ context.Context, to, subject, body string) error {
	l.log.Info("email (not sent)", "to", to, "subject", subject, "body", body)
	return nil
}
