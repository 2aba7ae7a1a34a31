// Package notify renders and delivers the monitor's outbound mail: planned
// arrival alerts and per-port turnaround reports, in the French HTML format
// the operations team reads.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// Notifier delivers one rendered payload. Delivery failures are reported to
// the caller for logging but must never affect state transitions or
// persistence.
type Notifier interface {
	Notify(ctx context.Context, subject, htmlBody string) error
}

// Mailer sends HTML mail over SMTP with STARTTLS.
type Mailer struct {
	client *mail.Client
	from   string
	to     string
	logger *slog.Logger
}

// NewMailer builds an SMTP notifier.
func NewMailer(host string, port int, username, password, from, to string, logger *slog.Logger) (*Mailer, error) {
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(20*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{
		client: client,
		from:   from,
		to:     to,
		logger: logger.With("component", "mailer"),
	}, nil
}

func (m *Mailer) Notify(ctx context.Context, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(m.to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Info("mail_sent", "to", m.to, "subject", subject)
	return nil
}

// NopNotifier is used when mail delivery is disabled; payloads are dropped
// with a debug log so local runs stay quiet.
type NopNotifier struct {
	Logger *slog.Logger
}

func (n NopNotifier) Notify(_ context.Context, subject, _ string) error {
	if n.Logger != nil {
		n.Logger.Debug("mail_suppressed", "subject", subject)
	}
	return nil
}
