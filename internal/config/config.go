package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const defaultSecret = "your-secret-key-change-in-production"

type Config struct {
	HTTPAddr string
	DBDSN    string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration

	AdminUser         string
	AdminPasswordHash string

	HistoryLimit    int
	AliasConfigPath string
}

func Load() *Config {
	config := &Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DBDSN:             os.Getenv("DB_DSN"),
		JWTSecret:         getEnv("JWT_SECRET", defaultSecret),
		JWTIssuer:         getEnv("JWT_ISS", "asset-tracker-api"),
		JWTAudience:       getEnv("JWT_AUD", "asset-tracker-api"),
		JWTExpiry:         24 * time.Hour, // Default to 24 hours
		AdminUser:         getEnv("ADMIN_USER", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		HistoryLimit:      500,
		AliasConfigPath:   os.Getenv("ALIAS_CONFIG"),
	}

	// Parse JWT expiry from environment if provided
	if expiryStr := os.Getenv("JWT_EXPIRY"); expiryStr != "" {
		if expiry, err := time.ParseDuration(expiryStr); err == nil {
			config.JWTExpiry = expiry
		}
	}

	// Parse history limit from environment if provided
	if limitStr := os.Getenv("HISTORY_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			config.HistoryLimit = limit
		}
	}

	return config
}

// Validate checks the loaded configuration for values that would make the
// service unusable or insecure.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT secret must not be empty")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT secret must be at least 32 characters")
	}
	if c.JWTIssuer == "" {
		return errors.New("JWT issuer must not be empty")
	}
	if c.JWTAudience == "" {
		return errors.New("JWT audience must not be empty")
	}
	if c.JWTExpiry < time.Minute {
		return errors.New("JWT expiry must be at least one minute")
	}
	if c.JWTExpiry > 30*24*time.Hour {
		return errors.New("JWT expiry must not exceed 30 days")
	}
	if c.HistoryLimit <= 0 {
		return errors.New("history limit must be positive")
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		if c.JWTSecret == defaultSecret {
			return errors.New("JWT secret must be changed from the default in production")
		}
		if c.AdminPasswordHash == "" {
			return errors.New("ADMIN_PASSWORD_HASH is required in production")
		}
	}

	return nil
}

// LoadAndValidate loads the configuration and validates it in one step.
func LoadAndValidate() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
