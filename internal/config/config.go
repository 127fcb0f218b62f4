// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "POINTSPANEL_"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	LedgerURL   string
	LedgerToken string
	User        string // Acting reviewer.
	AdminUser   string
	GitHubToken string

	ListenAddr string
	DBPath     string
	SchemaPath string

	// SecretKey is the 32-byte AES key for stored credentials, or nil when
	// POINTSPANEL_SECRET_KEY is unset.
	SecretKey []byte

	SubmitTimeout          time.Duration
	BalanceRefreshInterval time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables and returns a validated
// Config. A .env file in the working directory is loaded first; variables
// already set in the environment take precedence.
//
// Required: POINTSPANEL_LEDGER_URL, POINTSPANEL_USER.
// Optional with defaults: POINTSPANEL_ADMIN_USER (Administrator),
// POINTSPANEL_LISTEN_ADDR (127.0.0.1:8080), POINTSPANEL_DB_PATH (pointspanel.db),
// POINTSPANEL_SCHEMA_PATH (schemas.yaml), POINTSPANEL_SUBMIT_TIMEOUT (15s),
// POINTSPANEL_BALANCE_REFRESH_INTERVAL (5m), POINTSPANEL_LOG_LEVEL (INFO),
// POINTSPANEL_LOG_FORMAT (json).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LedgerURL:   os.Getenv(envPrefix + "LEDGER_URL"),
		LedgerToken: os.Getenv(envPrefix + "LEDGER_TOKEN"),
		User:        os.Getenv(envPrefix + "USER"),
		AdminUser:   getenv("ADMIN_USER", "Administrator"),
		GitHubToken: os.Getenv(envPrefix + "GITHUB_TOKEN"),
		ListenAddr:  getenv("LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:      getenv("DB_PATH", "pointspanel.db"),
		SchemaPath:  getenv("SCHEMA_PATH", "schemas.yaml"),
		LogLevel:    getenv("LOG_LEVEL", "INFO"),
		LogFormat:   getenv("LOG_FORMAT", "json"),
	}

	if cfg.LedgerURL == "" {
		return nil, fmt.Errorf("%sLEDGER_URL is required", envPrefix)
	}
	if u, err := url.Parse(cfg.LedgerURL); err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("%sLEDGER_URL must be an absolute URL, got %q", envPrefix, cfg.LedgerURL)
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("%sUSER is required", envPrefix)
	}

	var err error
	if cfg.SubmitTimeout, err = duration("SUBMIT_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.BalanceRefreshInterval, err = duration("BALANCE_REFRESH_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	if v := os.Getenv(envPrefix + "SECRET_KEY"); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("%sSECRET_KEY must be hex encoded: %w", envPrefix, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("%sSECRET_KEY must be 64 hex characters (32 bytes), got %d bytes", envPrefix, len(key))
		}
		cfg.SecretKey = key
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		return v
	}
	return fallback
}

// duration parses a positive duration variable.
func duration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s has invalid duration %q: %w", envPrefix, key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s%s must be positive, got %s", envPrefix, key, v)
	}
	return d, nil
}
