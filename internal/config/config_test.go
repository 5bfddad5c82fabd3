package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PasswordMinLength != 8 {
		t.Fatalf("expected default password length 8, got %d", cfg.PasswordMinLength)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("expected default jwt ttl, got %s", cfg.JWTTTL)
	}
	if cfg.JWTSecret == "" {
		t.Fatalf("expected development secret fallback")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PASSWORD_MIN_LENGTH", "12")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PasswordMinLength != 12 || cfg.CacheTTL != 90*time.Second || cfg.SMTPPort != 2525 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"JWT_TTL":             "forever",
		"CACHE_TTL":           "soon",
		"PASSWORD_MIN_LENGTH": "zero",
		"SMTP_PORT":           "smtp",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected missing secret to fail in production")
	}
}
