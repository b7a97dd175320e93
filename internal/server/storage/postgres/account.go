package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Lekka141/VaultConnect/internal/models"
	"github.com/Lekka141/VaultConnect/internal/server/storage"
)

const selectAccount = `SELECT id::text, username, email, display_name, password_hash, created_at, updated_at FROM accounts `

// CreateAccount inserts a new account. Unique indexes on lower(username) and
// lower(email) turn concurrent duplicates into ErrAccountAlreadyExists.
func (s *Storage) CreateAccount(ctx context.Context, account *models.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, username, email, display_name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID,
		account.Username,
		account.Email,
		account.DisplayName,
		account.PasswordHash,
		account.CreatedAt.UTC(),
		account.UpdatedAt.UTC(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return storage.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to insert account (username=%s): %w", account.Username, err)
	}
	return nil
}

// GetAccountByUsername retrieves account by username, ignoring case.
func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.getAccount(ctx, selectAccount+`WHERE lower(username) = lower($1)`, username)
}

// GetAccountByEmail retrieves account by email, ignoring case.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getAccount(ctx, selectAccount+`WHERE lower(email) = lower($1)`, email)
}

// GetAccountByID retrieves account by ID. An id that is not a UUID cannot
// match any row and is reported as ErrAccountNotFound.
func (s *Storage) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return nil, storage.ErrAccountNotFound
	}
	return s.getAccount(ctx, selectAccount+`WHERE id = $1`, accountID.String())
}

// UpdatePasswordHash replaces the stored digest.
func (s *Storage) UpdatePasswordHash(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return storage.ErrAccountNotFound
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, updatedAt.UTC(), accountID.String())
	if err != nil {
		return fmt.Errorf("failed to update password hash (id=%s): %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}
	return nil
}

func (s *Storage) getAccount(ctx context.Context, query, arg string) (*models.Account, error) {
	account := &models.Account{}

	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.DisplayName,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}
