package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bekosirs/bekoctl/internal/auth"
	"github.com/bekosirs/bekoctl/internal/config"
	"github.com/bekosirs/bekoctl/internal/server/middleware"
	"github.com/bekosirs/bekoctl/internal/storage"
)

// HandlerSet contains all HTTP handlers
type HandlerSet struct {
	Health  http.HandlerFunc
	Metrics http.HandlerFunc

	// Session handlers
	ObtainToken http.HandlerFunc
	Register    http.HandlerFunc

	// Account handlers (bearer required)
	ChangePassword http.HandlerFunc
	ChangeEmail    http.HandlerFunc

	// Catalog handlers
	ListProducts   http.HandlerFunc
	ListMyProducts http.HandlerFunc // bearer required

	// Counting hooks
	CountRequests func(http.Handler) http.Handler
	OnAuthFailure func(*http.Request)
	OnRateLimited func(*http.Request)
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	logger     *slog.Logger
	store      storage.Store
	issuer     *auth.TokenIssuer
	httpServer *http.Server
	handlers   HandlerSet
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *slog.Logger, store storage.Store, issuer *auth.TokenIssuer) *Server {
	return &Server{
		config: cfg,
		logger: logger,
		store:  store,
		issuer: issuer,
	}
}

// SetHandlers sets all handlers (called from the CLI layer to avoid import cycle)
func (s *Server) SetHandlers(handlers HandlerSet) {
	s.handlers = handlers
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Start runs the server until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.setupRouter(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server",
		"address", listener.Addr().String(),
		"storage_path", s.config.Storage.Path,
		"login_rate_per_minute", s.config.RateLimit.LoginPerMinute)

	serverErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received")
		return s.Shutdown()
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.logger.Info("Initiating graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown failed", "error", err)
		return err
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("Storage close failed", "error", err)
		return err
	}

	s.logger.Info("Server stopped gracefully")
	return nil
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *chi.Mux {
	router := chi.NewRouter()

	// Global middleware (applied to all routes)
	router.Use(middleware.Logging(s.logger))
	if s.handlers.CountRequests != nil {
		router.Use(s.handlers.CountRequests)
	}
	router.Use(middleware.CORS(s.config.Server.CORSOrigins))

	requireBearer := middleware.RequireBearer(s.issuer, s.handlers.OnAuthFailure)
	loginLimit := middleware.NewRateLimiter(middleware.RateLimitConfig{
		PerMinute: s.config.RateLimit.LoginPerMinute,
		Burst:     s.config.RateLimit.LoginBurst,
		OnLimited: s.handlers.OnRateLimited,
	})

	router.Route("/api", func(r chi.Router) {
		// Health and metrics endpoints (no auth required)
		if s.handlers.Health != nil {
			r.Get("/health/", s.handlers.Health)
		}
		if s.handlers.Metrics != nil {
			r.Get("/metrics/", s.handlers.Metrics)
		}

		// Login is the only rate limited endpoint
		if s.handlers.ObtainToken != nil {
			r.With(loginLimit).Post("/token/", s.handlers.ObtainToken)
		}
		if s.handlers.Register != nil {
			r.Post("/register/", s.handlers.Register)
		}
		if s.handlers.ListProducts != nil {
			r.Get("/products/", s.handlers.ListProducts)
		}

		// Endpoints acting on the caller's account
		r.Group(func(r chi.Router) {
			r.Use(requireBearer)

			if s.handlers.ListMyProducts != nil {
				r.Get("/my-products/", s.handlers.ListMyProducts)
			}
			if s.handlers.ChangePassword != nil {
				r.Post("/change-password/", s.handlers.ChangePassword)
			}
			if s.handlers.ChangeEmail != nil {
				r.Post("/change-email/", s.handlers.ChangeEmail)
			}
		})
	})

	return router
}
