package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/invoicedesk/internal/domain"
)

// PostgresInvoiceRepository implements domain.InvoiceRepository using PostgreSQL
type PostgresInvoiceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresInvoiceRepository creates a new invoice repository
func NewPostgresInvoiceRepository(db *sql.DB, logger *slog.Logger) *PostgresInvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresInvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new invoice row
func (r *PostgresInvoiceRepository) Create(invoice *domain.Invoice) error {
	query := `
		INSERT INTO invoices (id, client_id, attachment_path, date, description, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRow(
		query,
		invoice.ID,
		invoice.ClientID,
		invoice.AttachmentPath,
		invoice.Date,
		invoice.Description,
		invoice.Total,
	).Scan(&invoice.CreatedAt)

	if err != nil {
		r.logger.Error("failed to create invoice",
			slog.String("client_id", invoice.ClientID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

// GetByID retrieves an invoice by ID
func (r *PostgresInvoiceRepository) GetByID(id string) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}

	query := `
		SELECT id, client_id, attachment_path, date, description, total, created_at
		FROM invoices
		WHERE id = $1
	`

	err := r.db.QueryRow(query, id).Scan(
		&invoice.ID,
		&invoice.ClientID,
		&invoice.AttachmentPath,
		&invoice.Date,
		&invoice.Description,
		&invoice.Total,
		&invoice.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return invoice, nil
}

// SearchByClient returns one page of a client's invoices matching the search
// term against the description or the decimal-rendered total, newest date
// first, along with the total match count for pagination.
func (r *PostgresInvoiceRepository) SearchByClient(clientID, search string, limit, offset int) ([]*domain.Invoice, int, error) {
	pattern := "%" + search + "%"

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM invoices
		WHERE client_id = $1 AND (description ILIKE $2 OR total::text ILIKE $2)
	`
	if err := r.db.QueryRow(countQuery, clientID, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	query := `
		SELECT id, client_id, attachment_path, date, description, total, created_at
		FROM invoices
		WHERE client_id = $1 AND (description ILIKE $2 OR total::text ILIKE $2)
		ORDER BY date DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(query, clientID, pattern, limit, offset)
	if err != nil {
		r.logger.Error("failed to search invoices",
			slog.String("client_id", clientID),
			slog.String("error", err.Error()),
		)
		return nil, 0, fmt.Errorf("failed to search invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		invoice := &domain.Invoice{}
		err := rows.Scan(
			&invoice.ID,
			&invoice.ClientID,
			&invoice.AttachmentPath,
			&invoice.Date,
			&invoice.Description,
			&invoice.Total,
			&invoice.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	return invoices, total, rows.Err()
}

// Delete removes an invoice row
func (r *PostgresInvoiceRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}
