// Package config loads process-wide settings from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"deckcoach/internal/clash"
	"deckcoach/internal/decks"
)

// Config is loaded once at startup.
type Config struct {
	APIToken   string
	APIBaseURL string
	APITimeout time.Duration

	Port string

	PlayerLimit  int
	Concurrency  int
	RequestDelay time.Duration
}

// Load reads the environment, trying the usual .env locations first so
// running from a subdirectory still picks up the project file.
func Load() (*Config, error) {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}

	token := os.Getenv("CR_API_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("CR_API_TOKEN not set: create a .env with a token from the Clash Royale developer portal")
	}

	cfg := &Config{
		APIToken:     token,
		APIBaseURL:   envOr("CR_API_BASE_URL", clash.DefaultBaseURL),
		APITimeout:   envDuration("CR_API_TIMEOUT", clash.DefaultTimeout),
		Port:         envOr("PORT", "3001"),
		PlayerLimit:  envInt("TOPDECKS_PLAYER_LIMIT", decks.DefaultPlayerLimit),
		Concurrency:  envInt("TOPDECKS_CONCURRENCY", decks.DefaultConcurrency),
		RequestDelay: envDuration("TOPDECKS_REQUEST_DELAY", decks.DefaultRequestDelay),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q: %v", key, v, err)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q: %v", key, v, err)
		return fallback
	}
	return d
}
