package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims carries the identity embedded in a session token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
}

// NewTokenManager creates a token manager. Tokens are valid for lifetime
// from issuance; there is no server-side revocation.
func NewTokenManager(secret, issuer string, lifetime time.Duration) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "invoicedesk"
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, lifetime: lifetime}
}

// Lifetime returns the configured token validity window.
func (tm *TokenManager) Lifetime() time.Duration {
	return tm.lifetime
}

// GenerateToken issues a signed token for the given user.
func (tm *TokenManager) GenerateToken(userID, username string) (string, error) {
	if userID == "" || username == "" {
		return "", fmt.Errorf("user id and username required")
	}
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.lifetime)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// ValidateToken verifies the signature and expiry and returns the claims.
// Expired tokens surface ErrExpiredToken; anything else invalid surfaces
// ErrInvalidToken.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
