package storage

import (
	"context"
	"time"

	"github.com/Lekka141/VaultConnect/internal/models"
)

//go:generate moq -out account_mock.go . AccountStorage

// AccountStorage defines interface for account persistence.
// Usernames and emails are unique and compared case-insensitively; the store
// enforces uniqueness atomically.
type AccountStorage interface {
	// CreateAccount inserts a new account.
	// Returns ErrAccountAlreadyExists if the username or email is taken.
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccountByUsername retrieves account by username.
	// Returns ErrAccountNotFound if account doesn't exist
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)

	// GetAccountByEmail retrieves account by email.
	// Returns ErrAccountNotFound if account doesn't exist
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetAccountByID retrieves account by ID.
	// Returns ErrAccountNotFound if account doesn't exist
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)

	// UpdatePasswordHash replaces the stored digest.
	// Returns ErrAccountNotFound if account doesn't exist
	UpdatePasswordHash(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
