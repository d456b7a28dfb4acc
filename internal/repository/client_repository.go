package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/invoicedesk/internal/domain"
)

// PostgresClientRepository implements domain.ClientRepository using PostgreSQL
type PostgresClientRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresClientRepository creates a new client repository
func NewPostgresClientRepository(db *sql.DB, logger *slog.Logger) *PostgresClientRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresClientRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new client row
func (r *PostgresClientRepository) Create(client *domain.Client) error {
	query := `
		INSERT INTO clients (id, name, tax_id, email, postal_code, tax_regime, attachment_path, registered_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRow(
		query,
		client.ID,
		client.Name,
		client.TaxID,
		nullIfEmpty(client.Email),
		client.PostalCode,
		client.TaxRegime,
		nullIfEmpty(client.AttachmentPath),
		client.RegisteredDate,
	).Scan(&client.CreatedAt)

	if err != nil {
		r.logger.Error("failed to create client",
			slog.String("name", client.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

// GetByID retrieves a client by ID
func (r *PostgresClientRepository) GetByID(id string) (*domain.Client, error) {
	query := `
		SELECT id, name, tax_id, email, postal_code, tax_regime, attachment_path, registered_date, created_at
		FROM clients
		WHERE id = $1
	`

	client, err := scanClient(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	return client, nil
}

// List returns all clients, most recently created first
func (r *PostgresClientRepository) List() ([]*domain.Client, error) {
	query := `
		SELECT id, name, tax_id, email, postal_code, tax_regime, attachment_path, registered_date, created_at
		FROM clients
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("failed to list clients", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}

	return clients, rows.Err()
}

// Update rewrites all mutable fields of an existing client
func (r *PostgresClientRepository) Update(client *domain.Client) error {
	query := `
		UPDATE clients
		SET name = $1, tax_id = $2, email = $3, postal_code = $4, tax_regime = $5, attachment_path = $6, registered_date = $7
		WHERE id = $8
	`

	result, err := r.db.Exec(
		query,
		client.Name,
		client.TaxID,
		nullIfEmpty(client.Email),
		client.PostalCode,
		client.TaxRegime,
		nullIfEmpty(client.AttachmentPath),
		client.RegisteredDate,
		client.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
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

// Delete removes a client row. Invoice rows referencing it are removed in
// the same statement through the FK ON DELETE CASCADE.
func (r *PostgresClientRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*domain.Client, error) {
	client := &domain.Client{}
	var email, attachmentPath sql.NullString

	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.TaxID,
		&email,
		&client.PostalCode,
		&client.TaxRegime,
		&attachmentPath,
		&client.RegisteredDate,
		&client.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	client.Email = email.String
	client.AttachmentPath = attachmentPath.String
	return client, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
