package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yourorg/invoicedesk/internal/domain"
	"github.com/yourorg/invoicedesk/internal/service"
)

// InvoicesHandler handles invoice listing, upload, and deletion
type InvoicesHandler struct {
	invoiceService *service.InvoiceService
	logger         *slog.Logger
}

// NewInvoicesHandler creates a new invoices handler
func NewInvoicesHandler(invoiceService *service.InvoiceService, logger *slog.Logger) *InvoicesHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &InvoicesHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// InvoicePageResponse is one page of a filtered invoice listing
type InvoicePageResponse struct {
	Items       []InvoiceResponse `json:"items"`
	TotalPages  int               `json:"totalPages"`
	CurrentPage int               `json:"currentPage"`
}

// ListForClient handles GET /api/clients/{id}/invoices?search=&page=&limit=
func (h *InvoicesHandler) ListForClient(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("id")
	search := r.URL.Query().Get("search")
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", service.DefaultPageSize)

	result, err := h.invoiceService.ListForClient(clientID, search, page, limit)
	if err != nil {
		h.logger.Error("failed to list invoices",
			slog.String("client_id", clientID),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, h.logger)
		return
	}

	items := make([]InvoiceResponse, 0, len(result.Items))
	for _, inv := range result.Items {
		items = append(items, toInvoiceResponse(inv))
	}

	writeJSON(w, http.StatusOK, InvoicePageResponse{
		Items:       items,
		TotalPages:  result.TotalPages,
		CurrentPage: result.CurrentPage,
	}, h.logger)
}

// Create handles POST /api/invoices (multipart, file mandatory)
func (h *InvoicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "expected multipart form", h.logger)
		return
	}

	in := service.InvoiceInput{
		ClientID:    r.FormValue("clientId"),
		Description: r.FormValue("description"),
	}

	if raw := r.FormValue("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "date must be YYYY-MM-DD", h.logger)
			return
		}
		in.Date = date
	} else {
		in.Date = time.Now()
	}

	total, err := decimal.NewFromString(r.FormValue("total"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "total must be a decimal number", h.logger)
		return
	}
	in.Total = total

	file, header, err := r.FormFile("attachment")
	if err != nil {
		writeDomainError(w, fmt.Errorf("%w: invoice file is required", domain.ErrValidation), h.logger)
		return
	}
	defer file.Close()

	invoice, err := h.invoiceService.Create(in, service.Upload{Filename: header.Filename, Content: file})
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, toInvoiceResponse(invoice), h.logger)
}

// Delete handles DELETE /api/invoices/{id}
func (h *InvoicesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.invoiceService.Delete(r.PathValue("id")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeMessage(w, http.StatusOK, "invoice deleted successfully", h.logger)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
