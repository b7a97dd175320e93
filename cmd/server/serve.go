package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Lekka141/VaultConnect/internal/config"
	"github.com/Lekka141/VaultConnect/internal/crypto"
	"github.com/Lekka141/VaultConnect/internal/logging"
	"github.com/Lekka141/VaultConnect/internal/observability"
	"github.com/Lekka141/VaultConnect/internal/server"
	"github.com/Lekka141/VaultConnect/internal/server/auth"
	"github.com/Lekka141/VaultConnect/internal/server/jwt"
	"github.com/Lekka141/VaultConnect/pkg/errutil"
)

const serviceName = "vaultconnect"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and, unless observability.addr is empty, the
metrics and probe listener. The process refuses to start without a signing
secret of at least 32 bytes (VAULTCONNECT_AUTH__SECRET).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cmd.Context(), cmd, cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.Setup(serviceName, Version, cfg.Log.Format, level, cmd.ErrOrStderr())
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		slog.String("addr", cfg.Server.Addr),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("hash_algorithm", cfg.Hash.Algorithm),
		slog.Duration("token_ttl", cfg.Auth.TokenTTL),
	)

	store, err := openStore(ctx, logger, cfg.Storage)
	if err != nil {
		errutil.LogError(ctx, logger, "failed to open account store", err)
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("error closing account store", slog.Any("error", closeErr))
		}
	}()

	var (
		metrics   *observability.Metrics
		obsServer *observability.Server
		obsErrCh  <-chan error
	)
	if cfg.Observability.Addr != "" {
		obsServer = observability.NewServer(logger, cfg.Observability.Addr, func(ctx context.Context) bool {
			return store.Ping(ctx) == nil
		})
		metrics = obsServer.Metrics()
		if obsErrCh, err = obsServer.Start(); err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
	}

	hasher, err := crypto.NewHasher(cfg.Hash.HasherConfig)
	if err != nil {
		return fmt.Errorf("failed to configure password hashing: %w", err)
	}

	tokens, err := jwt.NewService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to configure session tokens: %w", err)
	}

	svc, err := auth.NewService(logger, store, hasher, tokens,
		auth.WithMetrics(metrics),
		auth.WithHashWorkers(cfg.Hash.Workers),
	)
	if err != nil {
		return fmt.Errorf("failed to create credential service: %w", err)
	}

	api := server.New(cfg.Server, server.Deps{
		Logger:   logger,
		Service:  svc,
		Verifier: tokens,
		Store:    store,
		Metrics:  metrics,
		Version:  Version,
	})

	apiErrCh, err := api.Start()
	if err != nil {
		return fmt.Errorf("failed to start api server: %w", err)
	}

	cmd.Println("VaultConnect server started on", api.Addr())

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-apiErrCh:
		serveErr = fmt.Errorf("api server error: %w", err)
	case err := <-obsErrCh:
		serveErr = fmt.Errorf("observability server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := api.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", slog.Any("error", err))
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", slog.Any("error", err))
		}
	}

	logger.Info("shutdown complete")
	return serveErr
}
