// Command server is the caretrack API entry point: it loads configuration,
// builds the identity provider for the configured mode, and runs the server.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rifathasan/caretrack/internal/config"
	"github.com/rifathasan/caretrack/internal/identity"
	"github.com/rifathasan/caretrack/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	if dbDir := filepath.Dir(cfg.DBPath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("creating database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		logger.Error("creating identity provider", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, provider, logger)
	if err != nil {
		logger.Error("creating server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func buildProvider(cfg config.Config, logger *slog.Logger) (identity.Provider, error) {
	switch cfg.ProviderMode {
	case config.ProviderHosted:
		return identity.NewHostedClient(identity.HostedConfig{
			BaseURL:   cfg.ProviderURL,
			JWTSecret: cfg.ProviderJWTSecret,
		}, logger)
	default:
		logger.Warn("using the in-process identity provider; accounts reset on restart")
		return identity.NewLocalProvider(cfg.ProviderJWTSecret)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
