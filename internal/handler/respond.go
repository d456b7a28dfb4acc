package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/invoicedesk/internal/domain"
)

const dateLayout = "2006-01-02"

// MessageResponse is the flat error/confirmation body every operation uses.
type MessageResponse struct {
	Message string `json:"message"`
}

// ClientResponse is the JSON shape of a client
type ClientResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	TaxID          string `json:"taxId"`
	Email          string `json:"email,omitempty"`
	PostalCode     string `json:"postalCode"`
	TaxRegime      string `json:"taxRegime"`
	AttachmentPath string `json:"attachmentPath,omitempty"`
	RegisteredDate string `json:"registeredDate"`
	CreatedAt      string `json:"createdAt"`
}

// InvoiceResponse is the JSON shape of an invoice
type InvoiceResponse struct {
	ID             string `json:"id"`
	ClientID       string `json:"clientId"`
	AttachmentPath string `json:"attachmentPath"`
	Date           string `json:"date"`
	Description    string `json:"description"`
	Total          string `json:"total"`
	CreatedAt      string `json:"createdAt"`
}

func toClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ID:             c.ID,
		Name:           c.Name,
		TaxID:          c.TaxID,
		Email:          c.Email,
		PostalCode:     c.PostalCode,
		TaxRegime:      c.TaxRegime,
		AttachmentPath: c.AttachmentPath,
		RegisteredDate: c.RegisteredDate.Format(dateLayout),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
}

func toInvoiceResponse(i *domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:             i.ID,
		ClientID:       i.ClientID,
		AttachmentPath: i.AttachmentPath,
		Date:           i.Date.Format(dateLayout),
		Description:    i.Description,
		Total:          i.Total.String(),
		CreatedAt:      i.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeMessage(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	writeJSON(w, status, MessageResponse{Message: message}, logger)
}

// writeDomainError maps the sentinel error taxonomy onto HTTP statuses; a
// single flat message string is all a caller gets.
func writeDomainError(w http.ResponseWriter, err error, logger *slog.Logger) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error(), logger)
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, "invalid credentials", logger)
	case errors.Is(err, domain.ErrNoEmail):
		writeMessage(w, http.StatusBadRequest, err.Error(), logger)
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found", logger)
	case errors.Is(err, domain.ErrConflict):
		writeMessage(w, http.StatusConflict, err.Error(), logger)
	default:
		// Wrapped driver or filesystem detail stays in the log.
		if logger != nil {
			logger.Error("request failed", slog.String("error", err.Error()))
		}
		writeMessage(w, http.StatusInternalServerError, "internal server error", logger)
	}
}
