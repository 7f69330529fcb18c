// Package ui serves the curation page and the sandboxed sketch documents.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/veetance/artifice/internal/bank"
	"github.com/veetance/artifice/internal/curation"
	"github.com/veetance/artifice/internal/ui/router"
)

// sweepInterval is how often idle visitor sessions are collected.
const sweepInterval = time.Minute

// Server is the main UI server.
type Server struct {
	registry     *curation.Registry
	sessionStore *sessions.CookieStore
	port         int
	watch        bool
	dev          bool
	bankDir      string
	runtimeURL   string
	logger       *slog.Logger
}

// Config holds configuration for the UI server.
type Config struct {
	Registry      *curation.Registry
	Port          int
	Watch         bool
	Dev           bool
	SessionSecret string
	BankDir       string
	RuntimeURL    string
	Logger        *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		registry:     cfg.Registry,
		sessionStore: sessionStore,
		port:         cfg.Port,
		watch:        cfg.Watch,
		dev:          cfg.Dev,
		bankDir:      cfg.BankDir,
		runtimeURL:   cfg.RuntimeURL,
		logger:       logger,
	}
}

// Handler builds the HTTP handler with all routes mounted.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.registry, s.sessionStore, s.runtimeURL, s.IsDev()); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Reload edited sketches in the sessions showing them
	if s.watch && s.bankDir != "" {
		watcher := bank.NewWatcher(s.bankDir, func(ref string) {
			s.registry.Reload(egctx, ref)
		}, s.logger)
		eg.Go(func() error {
			return watcher.Run(egctx)
		})
	}

	eg.Go(func() error {
		return s.registry.Run(egctx, sweepInterval)
	})

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// IsDev returns true if running in development mode.
func (s *Server) IsDev() bool {
	return s.dev
}
