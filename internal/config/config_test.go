package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresToken(t *testing.T) {
	t.Setenv("CR_API_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatal("Expected error without CR_API_TOKEN")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CR_API_TOKEN", "token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIBaseURL != "https://api.clashroyale.com/v1" {
		t.Errorf("Unexpected base URL: %s", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Errorf("Unexpected timeout: %s", cfg.APITimeout)
	}
	if cfg.Port != "3001" {
		t.Errorf("Unexpected port: %s", cfg.Port)
	}
	if cfg.Concurrency != 4 || cfg.RequestDelay != 100*time.Millisecond {
		t.Errorf("Unexpected pool settings: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CR_API_TOKEN", "token")
	t.Setenv("TOPDECKS_PLAYER_LIMIT", "250")
	t.Setenv("TOPDECKS_REQUEST_DELAY", "50ms")
	t.Setenv("TOPDECKS_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PlayerLimit != 250 {
		t.Errorf("Expected player limit 250, got %d", cfg.PlayerLimit)
	}
	if cfg.RequestDelay != 50*time.Millisecond {
		t.Errorf("Expected delay 50ms, got %s", cfg.RequestDelay)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Expected invalid concurrency to fall back to 4, got %d", cfg.Concurrency)
	}
}
