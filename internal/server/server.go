// Package server wires the application together: database, identity
// provider, guard, services, handlers, and routes, plus lifecycle (start,
// graceful shutdown). It is the only package that knows about everything.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rifathasan/caretrack/internal/auth"
	"github.com/rifathasan/caretrack/internal/config"
	"github.com/rifathasan/caretrack/internal/event"
	"github.com/rifathasan/caretrack/internal/handler"
	"github.com/rifathasan/caretrack/internal/identity"
	"github.com/rifathasan/caretrack/internal/middleware"
	"github.com/rifathasan/caretrack/internal/repository/sqlite"
	"github.com/rifathasan/caretrack/internal/service"
)

// Server owns the router, the database connection, and the HTTP lifecycle.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqlite.DB
}

// New assembles the full dependency chain. The identity provider is built by
// the caller since its construction depends on the provider mode.
func New(cfg config.Config, provider identity.Provider, logger *slog.Logger) (*Server, error) {
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(provider)

	return s, nil
}

func (s *Server) setupRoutes(provider identity.Provider) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	caregivers := s.db.Caregivers()
	resolver := auth.NewResolver(caregivers, s.logger)
	guard := auth.NewGuard(provider, resolver, s.logger)

	recorder := event.MultiRecorder{
		event.NewLogRecorder(s.logger),
		event.NewMetricsRecorder(registry),
	}

	caregiverHandler := handler.NewCaregiverHandler(
		service.NewCaregiverService(provider, caregivers, s.logger), s.logger)
	memberHandler := handler.NewMemberHandler(
		service.NewMemberService(s.db.Members(), recorder, s.logger), s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/caregivers/signup", caregiverHandler.HandleSignup)
		r.Post("/caregivers/login", caregiverHandler.HandleLogin)

		// Everything below requires a verified token resolved to a local
		// caregiver profile.
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireCaregiver)

			r.Get("/caregivers/me", caregiverHandler.HandleMe)

			r.Post("/members", memberHandler.HandleCreate)
			r.Get("/members", memberHandler.HandleList)
			r.Put("/members/{id}", memberHandler.HandleUpdate)
			r.Delete("/members/{id}", memberHandler.HandleDelete)
		})
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("provider_mode", s.config.ProviderMode),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
