package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yourorg/invoicedesk/internal/domain"
	"github.com/yourorg/invoicedesk/internal/security/auth"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration and login
type AuthService struct {
	credRepo domain.CredentialRepository
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(credRepo domain.CredentialRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		credRepo: credRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a new credential with a salted one-way hash. A taken
// username surfaces domain.ErrConflict.
func (s *AuthService) Register(username, password string) (*domain.Credential, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	cred := &domain.Credential{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
	}

	if err := s.credRepo.Create(cred); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create credential", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	s.logger.Info("user registered", slog.String("user_id", cred.ID), slog.String("username", username))
	return cred, nil
}

// Login verifies the password and issues a signed, time-limited session
// token. Unknown usernames and wrong passwords both surface
// domain.ErrInvalidCredentials.
func (s *AuthService) Login(username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	cred, err := s.credRepo.GetByUsername(username)
	if err != nil {
		s.logger.Info("login attempt with unknown username", slog.String("username", username))
		return "", domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("username", username))
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(cred.ID, cred.Username)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return "", errors.New("failed to generate token")
	}

	s.logger.Info("user logged in", slog.String("user_id", cred.ID), slog.String("username", username))
	return token, nil
}
