// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Provider modes.
const (
	ProviderLocal  = "local"
	ProviderHosted = "hosted"
)

// Config holds everything the server needs to start.
type Config struct {
	Port     int
	DBPath   string
	LogLevel string

	// ProviderMode selects the identity backend: "local" runs the in-process
	// provider (development and tests), "hosted" talks to an external
	// identity service over HTTP.
	ProviderMode string

	// ProviderURL is the hosted provider's base URL. Required in hosted mode.
	ProviderURL string

	// ProviderJWTSecret is the HS256 secret shared with the provider, used
	// to verify access tokens locally.
	ProviderJWTSecret string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win over
// it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	cfg := Config{
		Port:              8080,
		DBPath:            "data/caretrack.db",
		LogLevel:          "info",
		ProviderMode:      ProviderLocal,
		ProviderURL:       os.Getenv("PROVIDER_URL"),
		ProviderJWTSecret: os.Getenv("PROVIDER_JWT_SECRET"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if mode := os.Getenv("PROVIDER_MODE"); mode != "" {
		cfg.ProviderMode = mode
	}

	switch cfg.ProviderMode {
	case ProviderLocal, ProviderHosted:
	default:
		return Config{}, fmt.Errorf("config: unknown PROVIDER_MODE %q (want %s or %s)",
			cfg.ProviderMode, ProviderLocal, ProviderHosted)
	}

	if cfg.ProviderJWTSecret == "" {
		return Config{}, fmt.Errorf("config: PROVIDER_JWT_SECRET is required")
	}
	if cfg.ProviderMode == ProviderHosted && cfg.ProviderURL == "" {
		return Config{}, fmt.Errorf("config: PROVIDER_URL is required in hosted mode")
	}

	return cfg, nil
}
