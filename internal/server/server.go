// Package server assembles the HTTP API: routes, middleware chain and the
// listener lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/Lekka141/VaultConnect/internal/observability"
	"github.com/Lekka141/VaultConnect/internal/server/handlers"
	"github.com/Lekka141/VaultConnect/internal/server/middleware"
	"github.com/Lekka141/VaultConnect/internal/server/storage"
)

const healthPath = "/api/v1/health"

// Config holds listener settings.
type Config struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DefaultConfig returns the listener defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Deps are the collaborators the API is built from. Store and Metrics may be nil.
type Deps struct {
	Logger   *slog.Logger
	Service  handlers.CredentialService
	Verifier middleware.TokenVerifier
	Store    storage.Pinger
	Metrics  *observability.Metrics
	Version  string
}

// Server is the public HTTP API.
type Server struct {
	logger     *slog.Logger
	listener   net.Listener
	httpServer *http.Server
	handler    http.Handler
	cfg        Config
	running    atomic.Bool
}

// New builds the router and middleware chain. Nothing listens until Start.
func New(cfg Config, deps Deps) *Server {
	return &Server{
		logger:  deps.Logger,
		cfg:     cfg,
		handler: newRouter(cfg, deps),
	}
}

func newRouter(cfg Config, deps Deps) http.Handler {
	logger := deps.Logger

	authHandler := handlers.NewAuthHandler(logger, deps.Service)
	accountHandler := handlers.NewAccountHandler(logger, deps.Service)
	healthHandler := handlers.NewHealthHandler(logger, deps.Store, deps.Version)

	protected := middleware.AuthMiddleware(logger, deps.Verifier, deps.Metrics)

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET "+healthPath, healthHandler.Health)
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Protected
	mux.Handle("POST /api/v1/auth/logout", protected(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/v1/users/me", protected(http.HandlerFunc(accountHandler.Me)))
	mux.Handle("PUT /api/v1/users/me/password", protected(http.HandlerFunc(accountHandler.ChangePassword)))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handlers.SendError(logger, w, "route not found", http.StatusNotFound)
	})

	var h http.Handler = mux
	h = middleware.CORSMiddleware(cfg.CORSOrigins)(h)
	h = middleware.RecoveryMiddleware(logger)(h)
	h = middleware.LoggingWithSkip(logger, deps.Metrics, []string{healthPath})(h)
	h = middleware.RequestIDMiddleware()(h)

	return h
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves in the background. The returned
// channel receives a serve error, if any, and is closed when serving ends.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("API_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	httpSrv := s.httpServer

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("api server error", slog.Any("error", serveErr))
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", slog.String("addr", listener.Addr().String()))
	return errCh, nil
}

// Stop waits for in-flight requests to finish, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.With("operation", "shutdown_api_server").Wrap(err)
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the bound address, or "" if not started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
