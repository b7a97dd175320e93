package auth

import (
	"context"

	"github.com/Lekka141/VaultConnect/internal/client/storage"
	"github.com/Lekka141/VaultConnect/pkg/api"
)

//go:generate moq -out service_mock.go . Service

// Service manages the client's session with the server.
type Service interface {
	// Register creates an account and stores the returned session.
	Register(ctx context.Context, req api.RegisterRequest) (*storage.AuthData, error)

	// Login exchanges credentials for a session and stores it.
	Login(ctx context.Context, identifier, password string) (*storage.AuthData, error)

	// Logout discards the stored session and notifies the server.
	Logout(ctx context.Context) error

	// Current returns the stored session if it has not expired.
	Current(ctx context.Context) (*storage.AuthData, error)

	// Profile fetches the account behind the current session.
	Profile(ctx context.Context) (*api.Account, error)

	// ChangePassword replaces the account password.
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
}

// APIClient is the part of the HTTP client the session service needs.
type APIClient interface {
	BaseURL() string
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*api.Account, error)
	ChangePassword(ctx context.Context, token string, req api.ChangePasswordRequest) error
}
