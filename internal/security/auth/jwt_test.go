package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	tm := NewTokenManager("test-secret", "invoicedesk", time.Hour)

	token, err := tm.GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "user-123" || claims.Username != "alice" {
		t.Errorf("claims = %q/%q, want user-123/alice", claims.UserID, claims.Username)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", "invoicedesk", time.Hour)
	other := NewTokenManager("secret-b", "invoicedesk", time.Hour)

	token, err := tm.GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", "invoicedesk", -time.Minute)

	token, err := tm.GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := tm.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", "invoicedesk", time.Hour)
	if _, err := tm.ValidateToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGenerateTokenRequiresIdentity(t *testing.T) {
	tm := NewTokenManager("test-secret", "invoicedesk", time.Hour)
	if _, err := tm.GenerateToken("", "alice"); err == nil {
		t.Errorf("expected error for missing user id")
	}
	if _, err := tm.GenerateToken("user-123", ""); err == nil {
		t.Errorf("expected error for missing username")
	}
}
