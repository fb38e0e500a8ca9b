package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Test default configuration
	os.Unsetenv("HTTP_ADDR")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("JWT_ISS")
	os.Unsetenv("JWT_AUD")
	os.Unsetenv("JWT_EXPIRY")
	os.Unsetenv("HISTORY_LIMIT")
	os.Unsetenv("ALIAS_CONFIG")

	cfg := Load()

	// Check defaults
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected default HTTP_ADDR, got %s", cfg.HTTPAddr)
	}
	if cfg.JWTSecret != "your-secret-key-change-in-production" {
		t.Errorf("Expected default JWT_SECRET, got %s", cfg.JWTSecret)
	}
	if cfg.JWTIssuer != "asset-tracker-api" {
		t.Errorf("Expected default JWT_ISS, got %s", cfg.JWTIssuer)
	}
	if cfg.JWTAudience != "asset-tracker-api" {
		t.Errorf("Expected default JWT_AUD, got %s", cfg.JWTAudience)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("Expected default JWT_EXPIRY, got %v", cfg.JWTExpiry)
	}
	if cfg.HistoryLimit != 500 {
		t.Errorf("Expected default HISTORY_LIMIT 500, got %d", cfg.HistoryLimit)
	}
	if cfg.AdminUser != "admin" {
		t.Errorf("Expected default ADMIN_USER, got %s", cfg.AdminUser)
	}
}

func TestLoadWithEnvironment(t *testing.T) {
	// Test with environment variables
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_SECRET", "test-secret-key")
	os.Setenv("JWT_ISS", "test-issuer")
	os.Setenv("JWT_AUD", "test-audience")
	os.Setenv("JWT_EXPIRY", "2h")
	os.Setenv("HISTORY_LIMIT", "100")

	cfg := Load()

	// Check environment values
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("Expected HTTP_ADDR from env, got %s", cfg.HTTPAddr)
	}
	if cfg.JWTSecret != "test-secret-key" {
		t.Errorf("Expected JWT_SECRET from env, got %s", cfg.JWTSecret)
	}
	if cfg.JWTIssuer != "test-issuer" {
		t.Errorf("Expected JWT_ISS from env, got %s", cfg.JWTIssuer)
	}
	if cfg.JWTAudience != "test-audience" {
		t.Errorf("Expected JWT_AUD from env, got %s", cfg.JWTAudience)
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("Expected JWT_EXPIRY from env, got %v", cfg.JWTExpiry)
	}
	if cfg.HistoryLimit != 100 {
		t.Errorf("Expected HISTORY_LIMIT from env, got %d", cfg.HistoryLimit)
	}

	// Cleanup
	os.Unsetenv("HTTP_ADDR")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("JWT_ISS")
	os.Unsetenv("JWT_AUD")
	os.Unsetenv("JWT_EXPIRY")
	os.Unsetenv("HISTORY_LIMIT")
}

func TestLoadInvalidHistoryLimit(t *testing.T) {
	os.Setenv("HISTORY_LIMIT", "not-a-number")
	defer os.Unsetenv("HISTORY_LIMIT")

	cfg := Load()
	if cfg.HistoryLimit != 500 {
		t.Errorf("Expected fallback to default history limit, got %d", cfg.HistoryLimit)
	}

	os.Setenv("HISTORY_LIMIT", "-5")
	cfg = Load()
	if cfg.HistoryLimit != 500 {
		t.Errorf("Expected fallback to default for negative limit, got %d", cfg.HistoryLimit)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWTSecret:    "valid-secret-that-is-long-enough-for-testing",
			JWTIssuer:    "test-issuer",
			JWTAudience:  "test-audience",
			JWTExpiry:    time.Hour,
			HistoryLimit: 500,
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"empty issuer", func(c *Config) { c.JWTIssuer = "" }, true},
		{"empty audience", func(c *Config) { c.JWTAudience = "" }, true},
		{"expiry too short", func(c *Config) { c.JWTExpiry = time.Second }, true},
		{"expiry too long", func(c *Config) { c.JWTExpiry = 31 * 24 * time.Hour }, true},
		{"zero history limit", func(c *Config) { c.HistoryLimit = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestValidateProduction(t *testing.T) {
	os.Setenv("ENVIRONMENT", "production")
	defer os.Unsetenv("ENVIRONMENT")

	cfg := &Config{
		JWTSecret:    "your-secret-key-change-in-production",
		JWTIssuer:    "test-issuer",
		JWTAudience:  "test-audience",
		JWTExpiry:    time.Hour,
		HistoryLimit: 500,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for default secret in production")
	}

	cfg.JWTSecret = "a-real-production-secret-thats-long-enough"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for missing ADMIN_PASSWORD_HASH in production")
	}

	cfg.AdminPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid production config, got %v", err)
	}
}
