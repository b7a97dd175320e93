// Package auth keeps the CLI's session in sync between the server and local storage.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	clientapi "github.com/Lekka141/VaultConnect/internal/client/api"
	"github.com/Lekka141/VaultConnect/internal/client/storage"
	"github.com/Lekka141/VaultConnect/internal/validation"
	"github.com/Lekka141/VaultConnect/pkg/api"
)

var (
	// ErrNotLoggedIn means no session is stored locally.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionExpired means the stored session is past its expiry or the server rejected it.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrWrongPassword means the server refused the current password.
	ErrWrongPassword = errors.New("current password is incorrect")
)

// Session implements Service on top of the HTTP client and a local store.
type Session struct {
	api    APIClient
	store  storage.AuthStorage
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ Service   = (*Session)(nil)
	_ APIClient = (*clientapi.Client)(nil)
)

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a Session.
func NewSession(apiClient APIClient, store storage.AuthStorage, opts ...Option) *Session {
	s := &Session{
		api:    apiClient,
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates req locally, creates the account and stores the session.
func (s *Session) Register(ctx context.Context, req api.RegisterRequest) (*storage.AuthData, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)

	if err := validation.ValidateUsername(req.Username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}
	if err := validation.ValidateDisplayName(req.DisplayName); err != nil {
		return nil, fmt.Errorf("invalid display name: %w", err)
	}

	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.save(ctx, resp)
}

// Login authenticates with a username or email and stores the session.
func (s *Session) Login(ctx context.Context, identifier, password string) (*storage.AuthData, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errors.New("username or email is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}

	resp, err := s.api.Login(ctx, api.LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return nil, err
	}

	return s.save(ctx, resp)
}

// Logout deletes the local session. A failed server call is logged, not returned:
// the token stays valid until expiry either way.
func (s *Session) Logout(ctx context.Context) error {
	auth, err := s.stored(ctx)
	if err != nil {
		return err
	}

	if !auth.Expired(s.now()) {
		if err := s.api.Logout(ctx, auth.Token); err != nil && !clientapi.IsUnauthorized(err) {
			s.logger.WarnContext(ctx, "server logout failed", slog.Any("error", err))
		}
	}

	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// Current returns the stored session, or ErrNotLoggedIn / ErrSessionExpired.
func (s *Session) Current(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.stored(ctx)
	if err != nil {
		return nil, err
	}
	if auth.Expired(s.now()) {
		return nil, ErrSessionExpired
	}
	return auth, nil
}

// Profile asks the server who the current session belongs to. A rejected
// token clears the local session.
func (s *Session) Profile(ctx context.Context) (*api.Account, error) {
	auth, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.api.Me(ctx, auth.Token)
	if err != nil {
		return nil, s.rejected(ctx, err)
	}
	return account, nil
}

// ChangePassword changes the password of the current account.
func (s *Session) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return errors.New("current password is required")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("invalid new password: %w", err)
	}

	auth, err := s.Current(ctx)
	if err != nil {
		return err
	}

	err = s.api.ChangePassword(ctx, auth.Token, api.ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
	if clientapi.IsInvalidCredentials(err) {
		return ErrWrongPassword
	}
	if err != nil {
		return s.rejected(ctx, err)
	}
	return nil
}

func (s *Session) stored(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return auth, nil
}

func (s *Session) save(ctx context.Context, resp *api.AuthResponse) (*storage.AuthData, error) {
	if resp.Token == "" {
		return nil, errors.New("server returned no session token")
	}

	auth := &storage.AuthData{
		Username:  resp.Username,
		AccountID: resp.AccountID,
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		ServerURL: s.api.BaseURL(),
	}
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.DebugContext(ctx, "session saved",
		slog.String("username", auth.Username),
		slog.Time("expires_at", auth.ExpiresAt),
	)
	return auth, nil
}

// rejected maps a 401 on an authenticated call to ErrSessionExpired and
// drops the stored token.
func (s *Session) rejected(ctx context.Context, err error) error {
	if !clientapi.IsUnauthorized(err) {
		return err
	}
	if delErr := s.store.DeleteAuth(ctx); delErr != nil && !errors.Is(delErr, storage.ErrAuthNotFound) {
		s.logger.WarnContext(ctx, "failed to delete rejected session", slog.Any("error", delErr))
	}
	return ErrSessionExpired
}
