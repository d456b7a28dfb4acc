package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yourorg/invoicedesk/internal/service"
)

// SendHandler emails an invoice file to the owning client
type SendHandler struct {
	emailService *service.EmailService
	logger       *slog.Logger
}

// NewSendHandler creates a new send handler
func NewSendHandler(emailService *service.EmailService, logger *slog.Logger) *SendHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &SendHandler{
		emailService: emailService,
		logger:       logger,
	}
}

// Send handles POST /api/invoices/{id}/send
func (h *SendHandler) Send(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	recipient, err := h.emailService.Send(r.Context(), id)
	if err != nil {
		h.logger.Error("invoice dispatch failed",
			slog.String("invoice_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, h.logger)
		return
	}

	writeMessage(w, http.StatusOK, fmt.Sprintf("invoice sent to %s", recipient), h.logger)
}
