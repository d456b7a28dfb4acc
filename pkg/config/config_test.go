package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.ServerPort)
	}
	if cfg.TokenLifetime != time.Hour {
		t.Errorf("expected 1h token lifetime, got %v", cfg.TokenLifetime)
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("expected default upload dir, got %q", cfg.UploadDir)
	}
	if cfg.IsProduction() {
		t.Errorf("expected development default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ServerPort != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.ServerPort)
	}
	if !cfg.IsProduction() {
		t.Errorf("expected production environment")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "nope")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid port")
	}
}
