// Package postgres implements the account store on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/Lekka141/VaultConnect/internal/server/storage"
)

// poolIface is the subset of pgxpool.Pool the store uses; pgxmock.PgxPoolIface satisfies it.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var (
	_ storage.AccountStorage = (*Storage)(nil)
	_ storage.Pinger         = (*Storage)(nil)
)

// Storage is a PostgreSQL account store.
type Storage struct {
	pool poolIface
}

// New connects to dsn and verifies the connection.
func New(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}

	return &Storage{pool: pool}, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool poolIface) *Storage {
	return &Storage{pool: pool}
}

// Close closes the connection pool.
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
