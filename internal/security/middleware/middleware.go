package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/invoicedesk/internal/security/audit"
	"github.com/yourorg/invoicedesk/internal/security/auth"
	"github.com/yourorg/invoicedesk/internal/security/ratelimit"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

type ClaimsContextKey struct{}

// isPublic reports whether a path is reachable without a session. The
// attachment tree is served read-only without auth, mirroring the rest of
// the static surface.
func isPublic(path string) bool {
	switch path {
	case "/api/register", "/api/login", "/api/logout", "/healthz", "/readyz", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/uploads/")
}

// SessionMiddleware gates every resource operation behind a valid session
// cookie: 401 when the cookie is absent, 403 when the token is invalid or
// expired. On success the claims are attached to the request context.
func SessionMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				http.Error(w, `{"message":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(cookie.Value)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					http.Error(w, `{"message":"session expired"}`, http.StatusForbidden)
					return
				}
				log.Warn("rejected session token", slog.String("error", err.Error()))
				http.Error(w, `{"message":"invalid session"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware limits authenticated callers per user per window.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			userID := ""
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				userID = claims.UserID
			}

			if !limiter.Allow(userID) {
				log.Warn("rate limit exceeded", slog.String("user_id", userID))
				http.Error(w, `{"message":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records mutating resource operations with the acting user.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && !isPublic(r.URL.Path) {
				userID, username := "", ""
				if claims := GetClaimsFromContext(r.Context()); claims != nil {
					userID = claims.UserID
					username = claims.Username
				}
				auditLog.LogRequest(r.Context(), userID, username, r.Method, r.URL.Path)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetClaimsFromContext returns the authenticated claims, or nil outside an
// authenticated request.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
