// Package mail implements the outbound SMTP transport for invoice dispatch.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
	"github.com/yourorg/invoicedesk/internal/service"
)

// SMTPTransport sends messages through an external SMTP relay. It makes one
// synchronous attempt per message; there is no retry or queueing.
type SMTPTransport struct {
	client *mail.Client
	from   string
	logger *slog.Logger
}

// NewSMTPTransport creates an SMTP transport. Credentials are optional for
// relays that accept unauthenticated submission (local dev).
func NewSMTPTransport(host string, port int, username, password, from string, logger *slog.Logger) (*SMTPTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPTransport{
		client: client,
		from:   from,
		logger: logger,
	}, nil
}

// Send dispatches one message with its file attached.
func (t *SMTPTransport) Send(ctx context.Context, msg service.Message) error {
	m := mail.NewMsg()
	if err := m.From(t.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	m.AttachFile(msg.AttachmentPath, mail.WithFileName(msg.AttachmentName))

	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp dispatch failed: %w", err)
	}

	t.logger.Debug("mail sent", slog.String("to", msg.To))
	return nil
}
