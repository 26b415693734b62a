package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MIN_POLL_INTERVAL", "")
	t.Setenv("MAX_POLL_INTERVAL", "")
	t.Setenv("QUOTA_TARGET_UNITS", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MinPoll != 2*time.Second {
		t.Errorf("MinPoll = %v, want 2s", cfg.MinPoll)
	}
	if cfg.MaxPoll != 60*time.Second {
		t.Errorf("MaxPoll = %v, want 60s", cfg.MaxPoll)
	}
	if cfg.ChannelCacheTTL != time.Hour {
		t.Errorf("ChannelCacheTTL = %v, want 1h", cfg.ChannelCacheTTL)
	}
	if cfg.ChatCacheTTL != 30*time.Second {
		t.Errorf("ChatCacheTTL = %v, want 30s", cfg.ChatCacheTTL)
	}
	if cfg.QuotaTargetUnits != 10000 || cfg.QuotaUnitsPerRequest != 5 {
		t.Errorf("quota defaults = %d/%d, want 10000/5", cfg.QuotaTargetUnits, cfg.QuotaUnitsPerRequest)
	}
	if cfg.QuotaWindow != 3*time.Hour {
		t.Errorf("QuotaWindow = %v, want 3h", cfg.QuotaWindow)
	}
	if cfg.TokenPath != "storage/token.json" {
		t.Errorf("TokenPath = %q, want storage/token.json", cfg.TokenPath)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MIN_POLL_INTERVAL", "5s")
	t.Setenv("MAX_POLL_INTERVAL", "2m")
	t.Setenv("CHAT_CACHE_TTL", "10s")
	t.Setenv("QUOTA_TARGET_UNITS", "5000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MinPoll != 5*time.Second || cfg.MaxPoll != 2*time.Minute {
		t.Errorf("poll bounds = %v/%v, want 5s/2m", cfg.MinPoll, cfg.MaxPoll)
	}
	if cfg.ChatCacheTTL != 10*time.Second {
		t.Errorf("ChatCacheTTL = %v, want 10s", cfg.ChatCacheTTL)
	}
	if cfg.QuotaTargetUnits != 5000 {
		t.Errorf("QuotaTargetUnits = %d, want 5000", cfg.QuotaTargetUnits)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	t.Setenv("MIN_POLL_INTERVAL", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed MIN_POLL_INTERVAL")
	}
}

func TestLoadRejectsInvertedBounds(t *testing.T) {
	t.Setenv("MIN_POLL_INTERVAL", "30s")
	t.Setenv("MAX_POLL_INTERVAL", "5s")
	if _, err := Load(); err == nil {
		t.Error("expected error when MAX_POLL_INTERVAL < MIN_POLL_INTERVAL")
	}
}

func TestLoadRejectsNonPositiveUnits(t *testing.T) {
	t.Setenv("QUOTA_UNITS_PER_REQUEST", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for QUOTA_UNITS_PER_REQUEST=0")
	}
}

func TestValidateOAuthReady(t *testing.T) {
	t.Setenv("YT_CLIENT_ID", "id")
	t.Setenv("YT_CLIENT_SECRET", "secret")
	cfg, _ := Load()
	if err := cfg.ValidateOAuthReady(); err != nil {
		t.Errorf("expected valid oauth config, got %v", err)
	}
	t.Setenv("YT_CLIENT_ID", "")
	cfg, _ = Load()
	if err := cfg.ValidateOAuthReady(); err == nil {
		t.Error("expected error when missing YT_CLIENT_ID")
	}
}
