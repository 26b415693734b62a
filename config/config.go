// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Required credentials (the stored YouTube token) are validated at client construction, not here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// YouTube OAuth
	YTClientID     string
	YTClientSecret string
	YTRedirectURI  string
	YTScopes       string

	// Token storage
	TokenPath string
	// Base64 32-byte key; empty stores tokens in plaintext
	EncryptionKey string

	// Optional out-of-band channel id (skips channels.list discovery)
	ChannelID string

	// Polling bounds
	MinPoll time.Duration
	MaxPoll time.Duration

	// Discovery cache TTLs
	ChannelCacheTTL time.Duration
	ChatCacheTTL    time.Duration

	// Quota budget
	QuotaTargetUnits     int64
	QuotaUnitsPerRequest int64
	QuotaWindow          time.Duration

	// Database (empty disables Postgres-backed token store and chat log)
	DBDsn string

	// HTTP
	HTTPAddr string
}

// Load reads environment variables and applies defaults. Missing optional variables
// disable features (e.g., empty DB_DSN runs without Postgres). Malformed numeric or
// duration values are load errors so misconfiguration fails at startup.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.YTClientID = os.Getenv("YT_CLIENT_ID")
	cfg.YTClientSecret = os.Getenv("YT_CLIENT_SECRET")
	cfg.YTRedirectURI = os.Getenv("YT_REDIRECT_URI")
	cfg.YTScopes = os.Getenv("YT_SCOPES")
	if cfg.YTScopes == "" {
		cfg.YTScopes = "https://www.googleapis.com/auth/youtube https://www.googleapis.com/auth/youtube.force-ssl"
	}

	cfg.TokenPath = os.Getenv("YT_TOKEN_PATH")
	if cfg.TokenPath == "" {
		cfg.TokenPath = "storage/token.json"
	}
	cfg.EncryptionKey = os.Getenv("ENCRYPTION_KEY")

	cfg.ChannelID = os.Getenv("YT_CHANNEL_ID")

	var err error
	if cfg.MinPoll, err = durationEnv("MIN_POLL_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxPoll, err = durationEnv("MAX_POLL_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxPoll < cfg.MinPoll {
		return nil, fmt.Errorf("invalid poll bounds: min=%s max=%s", cfg.MinPoll, cfg.MaxPoll)
	}
	if cfg.ChannelCacheTTL, err = durationEnv("CHANNEL_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ChatCacheTTL, err = durationEnv("CHAT_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.QuotaTargetUnits, err = int64Env("QUOTA_TARGET_UNITS", 10000); err != nil {
		return nil, err
	}
	if cfg.QuotaUnitsPerRequest, err = int64Env("QUOTA_UNITS_PER_REQUEST", 5); err != nil {
		return nil, err
	}
	if cfg.QuotaWindow, err = durationEnv("QUOTA_WINDOW", 3*time.Hour); err != nil {
		return nil, err
	}

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// ValidateOAuthReady checks required fields for refreshing the stored YouTube token.
func (c *Config) ValidateOAuthReady() error {
	if c.YTClientID == "" || c.YTClientSecret == "" {
		return fmt.Errorf("missing youtube env: require YT_CLIENT_ID, YT_CLIENT_SECRET")
	}
	return nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (duration): %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", key, d)
	}
	return d, nil
}

func int64Env(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (integer): %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return n, nil
}
