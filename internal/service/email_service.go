package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourorg/invoicedesk/internal/domain"
	"github.com/yourorg/invoicedesk/internal/observability/metrics"
)

// Message is an outbound mail with one file attached.
type Message struct {
	To             string
	Subject        string
	Body           string
	AttachmentName string
	AttachmentPath string
}

// Transport dispatches a message to the external mail system. One attempt,
// synchronous; failures are surfaced verbatim.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// EmailService joins an invoice with its owning client and dispatches the
// stored file by mail.
type EmailService struct {
	invoices  domain.InvoiceRepository
	clients   domain.ClientRepository
	transport Transport
	logger    *slog.Logger
}

// NewEmailService creates a new email service
func NewEmailService(
	invoices domain.InvoiceRepository,
	clients domain.ClientRepository,
	transport Transport,
	logger *slog.Logger,
) *EmailService {
	if logger == nil {
		logger = slog.Default()
	}

	return &EmailService{
		invoices:  invoices,
		clients:   clients,
		transport: transport,
		logger:    logger,
	}
}

// Send dispatches the invoice to the owning client's address. Missing
// invoice or client surfaces domain.ErrNotFound; a client without an email
// surfaces domain.ErrNoEmail. Returns the recipient address on success.
func (s *EmailService) Send(ctx context.Context, invoiceID string) (string, error) {
	invoice, err := s.invoices.GetByID(invoiceID)
	if err != nil {
		return "", err
	}

	client, err := s.clients.GetByID(invoice.ClientID)
	if err != nil {
		return "", err
	}

	if client.Email == "" {
		return "", domain.ErrNoEmail
	}

	msg := Message{
		To:      client.Email,
		Subject: fmt.Sprintf("Invoice for %s", client.Name),
		Body: fmt.Sprintf(
			"Hello %s,\n\nPlease find your invoice attached.\n\nRegards,\nInvoicedesk.",
			client.Name,
		),
		AttachmentName: fmt.Sprintf("invoice_%s.pdf", invoice.ID),
		AttachmentPath: invoice.AttachmentPath,
	}

	if err := s.transport.Send(ctx, msg); err != nil {
		metrics.ObserveDispatch("error")
		s.logger.Error("invoice dispatch failed",
			slog.String("invoice_id", invoiceID),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	metrics.ObserveDispatch("success")

	s.logger.Info("invoice dispatched",
		slog.String("invoice_id", invoiceID),
		slog.String("to", client.Email),
	)
	return client.Email, nil
}
