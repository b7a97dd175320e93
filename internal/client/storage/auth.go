// Package storage defines the client's local session store.
package storage

import (
	"context"
	"time"
)

// AuthStorage persists the current session on the client machine.
type AuthStorage interface {
	// SaveAuth replaces the stored session.
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth returns the stored session, or ErrAuthNotFound.
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes the stored session. It returns ErrAuthNotFound if there is none.
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated reports whether a session exists and has not expired.
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData is a session obtained from the server by register or login.
// Token is stored as received; the file is created with 0600 permissions.
type AuthData struct {
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	AccountID string    `json:"account_id"`
	Token     string    `json:"token"`
	ServerURL string    `json:"server_url"`
}

// Expired reports whether the session is past its expiry at now.
func (a *AuthData) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}
