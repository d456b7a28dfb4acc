package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/invoicedesk/internal/handler"
	"github.com/yourorg/invoicedesk/internal/infrastructure/logger"
	"github.com/yourorg/invoicedesk/internal/mail"
	"github.com/yourorg/invoicedesk/internal/observability/metrics"
	"github.com/yourorg/invoicedesk/internal/observability/tracing"
	"github.com/yourorg/invoicedesk/internal/repository"
	"github.com/yourorg/invoicedesk/internal/security/audit"
	"github.com/yourorg/invoicedesk/internal/security/auth"
	"github.com/yourorg/invoicedesk/internal/security/middleware"
	"github.com/yourorg/invoicedesk/internal/security/ratelimit"
	"github.com/yourorg/invoicedesk/internal/service"
	"github.com/yourorg/invoicedesk/internal/storage"
	"github.com/yourorg/invoicedesk/pkg/cache"
	"github.com/yourorg/invoicedesk/pkg/config"
	"github.com/yourorg/invoicedesk/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting InvoiceDesk server", slog.String("environment", cfg.Environment))

	// 3. Initialize tracing (no-op without an OTLP endpoint configured)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, "invoicedesk", cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres and run migrations
	pool, err := database.NewConnectionPool(ctx, cfg.Database, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Initialize repositories and the upload directory manager
	db := pool.GetDB()
	credRepo := repository.NewPostgresCredentialRepository(db, log)
	clientRepo := repository.NewPostgresClientRepository(db, log)
	invoiceRepo := repository.NewPostgresInvoiceRepository(db, log)
	store := storage.NewManager(cfg.UploadDir, log)

	// 6. Initialize services
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "invoicedesk", cfg.TokenLifetime)
	auditLogger := audit.NewLogger(log)
	authService := service.NewAuthService(credRepo, tokenManager, log)
	clientService := service.NewClientService(clientRepo, store, cache.New(), cfg.ClientListCacheTTL, auditLogger, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, clientRepo, store, auditLogger, log)

	mailTransport, err := mail.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, log)
	if err != nil {
		log.Error("failed to initialize mail transport", slog.String("error", err.Error()))
		os.Exit(1)
	}
	emailService := service.NewEmailService(invoiceRepo, clientRepo, mailTransport, log)

	// 7. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, cfg.IsProduction(), int(tokenManager.Lifetime().Seconds()), log)
	clientsHandler := handler.NewClientsHandler(clientService, log)
	invoicesHandler := handler.NewInvoicesHandler(invoiceService, log)
	sendHandler := handler.NewSendHandler(emailService, log)

	// 7a. Initialize security components
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	// 8. Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("POST /api/logout", authHandler.Logout)

	mux.HandleFunc("GET /api/clients", clientsHandler.List)
	mux.HandleFunc("POST /api/clients", clientsHandler.Create)
	mux.HandleFunc("GET /api/clients/{id}", clientsHandler.Get)
	mux.HandleFunc("PUT /api/clients/{id}", clientsHandler.Update)
	mux.HandleFunc("DELETE /api/clients/{id}", clientsHandler.Delete)

	mux.HandleFunc("GET /api/clients/{id}/invoices", invoicesHandler.ListForClient)
	mux.HandleFunc("POST /api/invoices", invoicesHandler.Create)
	mux.HandleFunc("DELETE /api/invoices/{id}", invoicesHandler.Delete)
	mux.HandleFunc("POST /api/invoices/{id}/send", sendHandler.Send)

	// Stored attachments are served as plain static files
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints (no auth required)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			composeMiddleware(mux, cfg.CORSAllowedOrigins, tokenManager, rateLimiter, auditLogger, log),
		),
		log,
	)

	// 9. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "session cookie"),
		slog.String("upload_dir", cfg.UploadDir),
		slog.Int("rate_limit", cfg.RateLimitRequests),
		slog.String("rate_limit_window", cfg.RateLimitWindow.String()),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	rateLimiter.Stop()
	log.Info("server stopped")
}

// composeMiddleware layers CORS -> session -> rate limit -> audit around the
// mux. CORS sits outermost so a cookie-less OPTIONS preflight is answered
// before the session gate; rate limiting and auditing run inside the gate
// so the authenticated claims are on the context when they execute.
func composeMiddleware(
	mux http.Handler,
	allowedOrigins []string,
	tokenManager *auth.TokenManager,
	rateLimiter *ratelimit.Limiter,
	auditLogger *audit.Logger,
	log *slog.Logger,
) http.Handler {
	chain := middleware.SessionMiddleware(tokenManager, log)(
		middleware.RateLimitMiddleware(rateLimiter, log)(
			middleware.AuditMiddleware(auditLogger)(mux),
		),
	)
	return corsMiddleware(allowedOrigins, chain)
}

// corsMiddleware honors the configured origins and short-circuits OPTIONS
// preflights. The session cookie needs Access-Control-Allow-Credentials on
// every response.
func corsMiddleware(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(allowed) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", allowed[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
