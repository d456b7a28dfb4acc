package domain

import "time"

// Credential represents a login account. Rows are created once at
// registration and never mutated; there is no password-change path.
type Credential struct {
	ID           string // UUID
	Username     string // Unique
	PasswordHash string // Bcrypt hash, never returned in API responses
	CreatedAt    time.Time
}

// CredentialRepository defines data access for credentials
type CredentialRepository interface {
	Create(cred *Credential) error
	GetByUsername(username string) (*Credential, error)
}
