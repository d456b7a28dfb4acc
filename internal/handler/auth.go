package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/invoicedesk/internal/security/middleware"
	"github.com/yourorg/invoicedesk/internal/service"
)

// AuthHandler handles registration, login, and logout
type AuthHandler struct {
	authService   *service.AuthService
	secureCookies bool
	cookieMaxAge  int
	logger        *slog.Logger
}

// NewAuthHandler creates a new auth handler. secureCookies should be true
// in production so the session cookie is only sent over TLS.
func NewAuthHandler(authService *service.AuthService, secureCookies bool, cookieMaxAge int, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService:   authService,
		secureCookies: secureCookies,
		cookieMaxAge:  cookieMaxAge,
		logger:        logger,
	}
}

// RegisterRequest represents registration credentials
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse confirms a created account
type RegisterResponse struct {
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode register request", slog.String("error", err.Error()))
		writeMessage(w, http.StatusBadRequest, "invalid request", h.logger)
		return
	}

	cred, err := h.authService.Register(req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message:  "user registered successfully",
		UserID:   cred.ID,
		Username: cred.Username,
	}, h.logger)
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse confirms a started session; the token itself travels only
// in the cookie.
type LoginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// Login handles POST /api/login. On success the signed session token is
// delivered as an http-only, strict-same-site cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode login request", slog.String("error", err.Error()))
		writeMessage(w, http.StatusBadRequest, "invalid request", h.logger)
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.cookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, LoginResponse{
		Message:  "login successful",
		Username: req.Username,
	}, h.logger)
}

// Logout handles POST /api/logout. It only clears the cookie; the token
// stays valid until its natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	writeMessage(w, http.StatusOK, "logged out successfully", h.logger)
}
