package domain

import "errors"

// Sentinel errors shared across services, repositories, and handlers.
// Repositories translate driver errors into these; handlers translate
// them into HTTP statuses.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrNoEmail            = errors.New("client has no email on file")
)
