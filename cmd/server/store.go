package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/Lekka141/VaultConnect/internal/config"
	"github.com/Lekka141/VaultConnect/internal/server/storage"
	"github.com/Lekka141/VaultConnect/internal/server/storage/postgres"
	"github.com/Lekka141/VaultConnect/internal/server/storage/sqlite"
)

// accountStore is what the server needs from either backend.
type accountStore interface {
	storage.AccountStorage
	storage.Pinger
	Close() error
}

var (
	_ accountStore = (*sqlite.Storage)(nil)
	_ accountStore = (*postgres.Storage)(nil)
)

// openStore connects to the configured backend, retrying with exponential
// backoff until cfg.ConnectTimeout elapses. Schema migrations are applied
// before the store is returned.
func openStore(ctx context.Context, logger *slog.Logger, cfg config.StorageConfig) (accountStore, error) {
	backoff := retry.NewExponential(250 * time.Millisecond)
	backoff = retry.WithCappedDuration(5*time.Second, backoff)
	backoff = retry.WithMaxDuration(cfg.ConnectTimeout, backoff)

	attempt := 0
	store, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (accountStore, error) {
		attempt++
		s, err := dialStore(ctx, cfg)
		if err != nil {
			logger.WarnContext(ctx, "account store not reachable yet",
				slog.String("driver", cfg.Driver),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			return nil, retry.RetryableError(err)
		}
		return s, nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("driver", cfg.Driver).
			With("attempts", attempt).
			Wrap(err)
	}

	logger.InfoContext(ctx, "account store connected", slog.String("driver", cfg.Driver))
	return store, nil
}

func dialStore(ctx context.Context, cfg config.StorageConfig) (accountStore, error) {
	if cfg.Driver == config.DriverPostgres {
		if err := migratePostgres(cfg.DSN); err != nil {
			return nil, err
		}
		s, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	// sqlite applies its goose migrations on open.
	s, err := sqlite.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func migratePostgres(dsn string) (err error) {
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return m.Up()
}
