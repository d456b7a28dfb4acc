package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourorg/invoicedesk/internal/domain"
	"github.com/yourorg/invoicedesk/internal/observability/metrics"
	"github.com/yourorg/invoicedesk/internal/security/audit"
	"github.com/yourorg/invoicedesk/internal/storage"
)

// DefaultPageSize is used when the caller does not pass a limit.
const DefaultPageSize = 5

// InvoiceInput holds the fields of a new invoice.
type InvoiceInput struct {
	ClientID    string
	Date        time.Time
	Description string
	Total       decimal.Decimal
}

// InvoicePage is one page of a filtered invoice listing.
type InvoicePage struct {
	Items       []*domain.Invoice
	TotalPages  int
	CurrentPage int
}

// InvoiceService owns the invoice lifecycle. Invoice files live under the
// owning client's directory, so creation resolves the client row first.
type InvoiceService struct {
	invoices domain.InvoiceRepository
	clients  domain.ClientRepository
	store    *storage.Manager
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewInvoiceService creates a new invoice service. auditLog may be nil.
func NewInvoiceService(
	invoices domain.InvoiceRepository,
	clients domain.ClientRepository,
	store *storage.Manager,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *InvoiceService {
	if logger == nil {
		logger = slog.Default()
	}

	return &InvoiceService{
		invoices: invoices,
		clients:  clients,
		store:    store,
		audit:    auditLog,
		logger:   logger,
	}
}

// ListForClient returns one page of the client's invoices whose description
// or decimal-rendered total contains search case-insensitively, ordered by
// date descending.
func (s *InvoiceService) ListForClient(clientID, search string, page, limit int) (*InvoicePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	offset := (page - 1) * limit

	items, total, err := s.invoices.SearchByClient(clientID, search, limit, offset)
	if err != nil {
		return nil, err
	}

	return &InvoicePage{
		Items:       items,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}, nil
}

// Get returns a single invoice or domain.ErrNotFound
func (s *InvoiceService) Get(id string) (*domain.Invoice, error) {
	return s.invoices.GetByID(id)
}

// Create resolves the owning client, writes the file under its invoices
// directory, then inserts the row. A failed insert rolls the file back.
func (s *InvoiceService) Create(in InvoiceInput, file Upload) (*domain.Invoice, error) {
	if in.ClientID == "" {
		return nil, fmt.Errorf("%w: clientId is required", domain.ErrValidation)
	}
	if file.Content == nil {
		return nil, fmt.Errorf("%w: invoice file is required", domain.ErrValidation)
	}

	client, err := s.clients.GetByID(in.ClientID)
	if err != nil {
		return nil, err
	}

	unlock := s.store.LockNames(client.Name)
	defer unlock()

	path, err := s.store.SaveInvoiceFile(client.Name, file.Filename, file.Content)
	if err != nil {
		metrics.ObserveFileOp("invoice_write", "error")
		return nil, err
	}
	metrics.ObserveFileOp("invoice_write", "success")

	invoice := &domain.Invoice{
		ID:             uuid.NewString(),
		ClientID:       in.ClientID,
		AttachmentPath: path,
		Date:           in.Date,
		Description:    in.Description,
		Total:          in.Total,
	}

	if err := s.invoices.Create(invoice); err != nil {
		s.store.Discard(path)
		return nil, err
	}

	s.audit.LogFileChange("create", "invoice_file", invoice.ID, path)
	s.logger.Info("invoice created",
		slog.String("invoice_id", invoice.ID),
		slog.String("client_id", in.ClientID),
		slog.String("path", path),
	)
	return invoice, nil
}

// Delete removes the row and then the single invoice file, never the parent
// directory. A missing file on disk is not an error.
func (s *InvoiceService) Delete(id string) error {
	invoice, err := s.invoices.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.invoices.Delete(id); err != nil {
		return err
	}

	if err := s.store.RemoveInvoiceFile(invoice.AttachmentPath); err != nil {
		metrics.ObserveFileOp("invoice_delete", "error")
		s.logger.Error("invoice row deleted but file removal failed",
			slog.String("invoice_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}
	metrics.ObserveFileOp("invoice_delete", "success")

	s.audit.LogFileChange("delete", "invoice_file", id, invoice.AttachmentPath)
	s.logger.Info("invoice deleted", slog.String("invoice_id", id))
	return nil
}
