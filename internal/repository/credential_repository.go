package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/yourorg/invoicedesk/internal/domain"
)

// PostgresCredentialRepository implements domain.CredentialRepository using PostgreSQL
type PostgresCredentialRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCredentialRepository creates a new credential repository
func NewPostgresCredentialRepository(db *sql.DB, logger *slog.Logger) *PostgresCredentialRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCredentialRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new credential row. A duplicate username surfaces as
// domain.ErrConflict.
func (r *PostgresCredentialRepository) Create(cred *domain.Credential) error {
	query := `
		INSERT INTO credentials (id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.db.QueryRow(
		query,
		cred.ID,
		cred.Username,
		cred.PasswordHash,
	).Scan(&cred.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("username %q: %w", cred.Username, domain.ErrConflict)
		}
		r.logger.Error("failed to create credential",
			slog.String("username", cred.Username),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create credential: %w", err)
	}

	return nil
}

// GetByUsername retrieves a credential by its unique username
func (r *PostgresCredentialRepository) GetByUsername(username string) (*domain.Credential, error) {
	cred := &domain.Credential{}

	query := `
		SELECT id, username, password_hash, created_at
		FROM credentials
		WHERE username = $1
	`

	err := r.db.QueryRow(query, username).Scan(
		&cred.ID,
		&cred.Username,
		&cred.PasswordHash,
		&cred.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get credential by username: %w", err)
	}

	return cred, nil
}
