package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/invoicedesk/pkg/database"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	CORSAllowedOrigins []string
	OTLPEndpoint       string

	Database *database.Config

	JWTSecret     string
	TokenLifetime time.Duration

	UploadDir string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	ClientListCacheTTL time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
		}),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Database: &database.Config{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            dbPort,
			User:            getEnv("DB_USER", "invoicedesk"),
			Password:        getEnv("DB_PASSWORD", "dev"),
			Database:        getEnv("DB_NAME", "invoicedesk"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenLifetime:      time.Hour,
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		SMTPHost:           getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           smtpPort,
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		MailFrom:           getEnv("MAIL_FROM", getEnv("SMTP_USERNAME", "")),
		RateLimitRequests:  rateLimit,
		RateLimitWindow:    time.Minute,
		ClientListCacheTTL: 10 * time.Second,
	}, nil
}

// IsProduction reports whether the server runs with production hardening
// (secure cookies, among other things).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
