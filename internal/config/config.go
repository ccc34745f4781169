package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend selectors.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendValkey = "valkey"
	BackendMemory = "memory"
)

type AppConfig struct {
	// APIBaseURL is the weather backend root, including the version prefix.
	APIBaseURL string

	// Optional headless credentials for login at startup.
	AuthEmail    string
	AuthPassword string

	// CredentialFile holds the session token between runs.
	CredentialFile string

	// CacheBackend selects where cached cities live.
	CacheBackend string
	CacheFile    string
	SQLitePath   string
	ValkeyAddr   string
	ValkeyKey    string

	// RefreshInterval controls the periodic favorites refresh (0 = off).
	RefreshInterval time.Duration

	HTTPTimeout time.Duration
	Port        string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.APIBaseURL = getenvDefault("GLASSCAST_API_URL", "http://localhost:6969/v1")
	cfg.AuthEmail = os.Getenv("GLASSCAST_EMAIL")
	cfg.AuthPassword = os.Getenv("GLASSCAST_PASSWORD")
	cfg.CredentialFile = getenvDefault("CREDENTIAL_FILE", ".glasscast_token")

	cfg.CacheBackend = getenvDefault("CACHE_BACKEND", BackendFile)
	switch cfg.CacheBackend {
	case BackendFile, BackendSQLite, BackendValkey, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND: %q", cfg.CacheBackend)
	}
	cfg.CacheFile = getenvDefault("CACHE_FILE", "cached_cities.json")
	cfg.SQLitePath = getenvDefault("CACHE_SQLITE_PATH", "glasscast.db")
	cfg.ValkeyAddr = getenvDefault("CACHE_VALKEY_ADDR", "127.0.0.1:6379")
	cfg.ValkeyKey = getenvDefault("CACHE_VALKEY_KEY", "glasscast:cached_cities")

	// Favorites refresh interval: default 15 minutes, "0" disables.
	intervalStr := getenvDefault("REFRESH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
