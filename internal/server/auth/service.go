// Package auth implements account registration, login and password changes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"

	"github.com/Lekka141/VaultConnect/internal/crypto"
	"github.com/Lekka141/VaultConnect/internal/models"
	"github.com/Lekka141/VaultConnect/internal/observability"
	"github.com/Lekka141/VaultConnect/internal/server/jwt"
	"github.com/Lekka141/VaultConnect/internal/server/storage"
	"github.com/Lekka141/VaultConnect/internal/validation"
)

const (
	opRegister       = "register"
	opLogin          = "login"
	opChangePassword = "change_password"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(accountID, username string) (jwt.Token, error)
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// LoginInput identifies an account by username or email.
type LoginInput struct {
	Identifier string
	Password   string
}

// Result is returned by a successful Register or Login.
type Result struct {
	Account *models.Account
	Token   jwt.Token
}

// Service orchestrates the credential flows. It holds no per-request state.
type Service struct {
	logger    *slog.Logger
	accounts  storage.AccountStorage
	hasher    crypto.PasswordHasher
	tokens    TokenIssuer
	metrics   *observability.Metrics
	hashSlots *semaphore.Weighted
	now       func() time.Time
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records attempt counters and hash timings on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithHashWorkers bounds concurrent hash/verify calls. Values below 1 mean GOMAXPROCS.
func WithHashWorkers(n int) Option {
	return func(s *Service) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		s.hashSlots = semaphore.NewWeighted(int64(n))
	}
}

// WithClock overrides time.Now for account timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service. It hashes a random throwaway password once so
// that logins for unknown identifiers pay the same verification cost as real ones.
func NewService(logger *slog.Logger, accounts storage.AccountStorage, hasher crypto.PasswordHasher, tokens TokenIssuer, opts ...Option) (*Service, error) {
	s := &Service{
		logger:    logger,
		accounts:  accounts,
		hasher:    hasher,
		tokens:    tokens,
		hashSlots: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := hasher.Hash(ulid.Make().String())
	if err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").With("operation", "hash dummy password").Wrap(err)
	}
	s.dummyHash = dummy

	return s, nil
}

// Register validates input, rejects taken usernames or emails, stores the
// account with a hashed password and issues a session token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	username := strings.TrimSpace(in.Username)
	email := validation.NormalizeEmail(in.Email)
	displayName := strings.TrimSpace(in.DisplayName)

	if err := validateRegistration(username, email, in.Password, displayName); err != nil {
		s.metrics.AuthAttempt(opRegister, observability.ResultInvalid)
		return nil, oops.Code("AUTH_VALIDATION_FAILED").With("field", err.Field).Wrap(err)
	}

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	var digest string
	err := s.withHashSlot(ctx, "hash", func() error {
		var hashErr error
		digest, hashErr = s.hasher.Hash(in.Password)
		return hashErr
	})
	if err != nil {
		s.metrics.AuthAttempt(opRegister, observability.ResultError)
		return nil, oops.Code("AUTH_HASH_FAILED").With("operation", "hash password").Wrap(err)
	}

	now := s.now().UTC()
	account := &models.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrAccountAlreadyExists) {
			// Lost a race with a concurrent registration.
			s.logger.WarnContext(ctx, "registration rejected: account created concurrently",
				slog.String("username", username))
			s.metrics.AuthAttempt(opRegister, observability.ResultDuplicate)
			return nil, oops.Code("AUTH_DUPLICATE_ACCOUNT").With("username", username).Wrap(ErrDuplicateAccount)
		}
		return nil, s.storageFailure(opRegister, "create account", err)
	}

	token, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		s.metrics.AuthAttempt(opRegister, observability.ResultError)
		return nil, oops.Code("AUTH_TOKEN_ISSUE_FAILED").With("account_id", account.ID).Wrap(err)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", account.ID),
		slog.String("username", account.Username))
	s.metrics.AuthAttempt(opRegister, observability.ResultSuccess)

	return &Result{Account: account, Token: token}, nil
}

// Login resolves the identifier as an email when it contains "@" and as a
// username otherwise. Unknown identifiers and wrong passwords return the same
// ErrInvalidCredentials after the same amount of hashing work. Login never writes.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Result, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" {
		s.metrics.AuthAttempt(opLogin, observability.ResultInvalid)
		return nil, oops.Code("AUTH_VALIDATION_FAILED").Wrap(&ValidationError{Field: "identifier", Err: errors.New("username or email is required")})
	}
	if in.Password == "" {
		s.metrics.AuthAttempt(opLogin, observability.ResultInvalid)
		return nil, oops.Code("AUTH_VALIDATION_FAILED").Wrap(&ValidationError{Field: "password", Err: errors.New("password is required")})
	}

	account, lookupErr := s.lookup(ctx, identifier)
	if lookupErr != nil && !errors.Is(lookupErr, storage.ErrAccountNotFound) {
		return nil, s.storageFailure(opLogin, "get account", lookupErr)
	}

	target := s.dummyHash
	if account != nil {
		target = account.PasswordHash
	}

	var valid bool
	err := s.withHashSlot(ctx, "verify", func() error {
		var verifyErr error
		valid, verifyErr = s.hasher.Verify(in.Password, target)
		return verifyErr
	})

	switch {
	case err != nil && ctx.Err() != nil:
		s.metrics.AuthAttempt(opLogin, observability.ResultError)
		return nil, oops.Code("AUTH_CANCELLED").Wrap(err)
	case account == nil:
		s.logger.WarnContext(ctx, "login failed: unknown identifier", slog.String("identifier", identifier))
		return nil, s.invalidCredentials()
	case err != nil:
		s.logger.ErrorContext(ctx, "login failed: stored digest unusable",
			slog.String("account_id", account.ID),
			slog.Any("error", err))
		return nil, s.invalidCredentials()
	case !valid:
		s.logger.WarnContext(ctx, "login failed: wrong password", slog.String("account_id", account.ID))
		return nil, s.invalidCredentials()
	}

	token, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		s.metrics.AuthAttempt(opLogin, observability.ResultError)
		return nil, oops.Code("AUTH_TOKEN_ISSUE_FAILED").With("account_id", account.ID).Wrap(err)
	}

	s.logger.InfoContext(ctx, "account logged in",
		slog.String("account_id", account.ID),
		slog.String("username", account.Username))
	s.metrics.AuthAttempt(opLogin, observability.ResultSuccess)

	return &Result{Account: account, Token: token}, nil
}

// ChangePassword verifies the current password and stores a fresh digest of
// next, made with the current primary algorithm and cost. Already issued
// tokens stay valid until they expire.
func (s *Service) ChangePassword(ctx context.Context, accountID, current, next string) error {
	if err := validation.ValidatePassword(next); err != nil {
		s.metrics.AuthAttempt(opChangePassword, observability.ResultInvalid)
		return oops.Code("AUTH_VALIDATION_FAILED").Wrap(&ValidationError{Field: "new_password", Err: err})
	}

	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			s.metrics.AuthAttempt(opChangePassword, observability.ResultInvalidCredentials)
			return oops.Code("AUTH_UNAUTHENTICATED").With("account_id", accountID).Wrap(ErrUnauthenticated)
		}
		return s.storageFailure(opChangePassword, "get account", err)
	}

	var valid bool
	err = s.withHashSlot(ctx, "verify", func() error {
		var verifyErr error
		valid, verifyErr = s.hasher.Verify(current, account.PasswordHash)
		return verifyErr
	})
	if err != nil || !valid {
		s.logger.WarnContext(ctx, "password change rejected: current password mismatch",
			slog.String("account_id", accountID))
		s.metrics.AuthAttempt(opChangePassword, observability.ResultInvalidCredentials)
		return oops.Code("AUTH_INVALID_CREDENTIALS").With("account_id", accountID).Wrap(ErrInvalidCredentials)
	}

	var digest string
	err = s.withHashSlot(ctx, "hash", func() error {
		var hashErr error
		digest, hashErr = s.hasher.Hash(next)
		return hashErr
	})
	if err != nil {
		s.metrics.AuthAttempt(opChangePassword, observability.ResultError)
		return oops.Code("AUTH_HASH_FAILED").With("operation", "hash password").Wrap(err)
	}

	if err := s.accounts.UpdatePasswordHash(ctx, accountID, digest, s.now().UTC()); err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			s.metrics.AuthAttempt(opChangePassword, observability.ResultInvalidCredentials)
			return oops.Code("AUTH_UNAUTHENTICATED").With("account_id", accountID).Wrap(ErrUnauthenticated)
		}
		return s.storageFailure(opChangePassword, "update password hash", err)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("account_id", accountID))
	s.metrics.AuthAttempt(opChangePassword, observability.ResultSuccess)

	return nil
}

// Profile returns the account behind a verified token.
func (s *Service) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, oops.Code("AUTH_UNAUTHENTICATED").With("account_id", accountID).Wrap(ErrUnauthenticated)
		}
		return nil, oops.Code("AUTH_STORAGE_UNAVAILABLE").
			With("operation", "get account").
			Wrap(fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
	}
	return account, nil
}

func validateRegistration(username, email, password, displayName string) *ValidationError {
	if err := validation.ValidateUsername(username); err != nil {
		return &ValidationError{Field: "username", Err: err}
	}
	if err := validation.ValidateEmail(email); err != nil {
		return &ValidationError{Field: "email", Err: err}
	}
	if err := validation.ValidatePassword(password); err != nil {
		return &ValidationError{Field: "password", Err: err}
	}
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return &ValidationError{Field: "display_name", Err: err}
	}
	return nil
}

// ensureAvailable is a fast pre-check; the store's unique indexes remain the
// authority under concurrent registration.
func (s *Service) ensureAvailable(ctx context.Context, username, email string) error {
	checks := []struct {
		field string
		get   func(context.Context, string) (*models.Account, error)
		value string
	}{
		{field: "username", get: s.accounts.GetAccountByUsername, value: username},
		{field: "email", get: s.accounts.GetAccountByEmail, value: email},
	}

	for _, c := range checks {
		_, err := c.get(ctx, c.value)
		switch {
		case err == nil:
			s.logger.WarnContext(ctx, "registration rejected: "+c.field+" taken", slog.String(c.field, c.value))
			s.metrics.AuthAttempt(opRegister, observability.ResultDuplicate)
			return oops.Code("AUTH_DUPLICATE_ACCOUNT").With("field", c.field).Wrap(ErrDuplicateAccount)
		case errors.Is(err, storage.ErrAccountNotFound):
		default:
			return s.storageFailure(opRegister, "get account by "+c.field, err)
		}
	}

	return nil
}

func (s *Service) lookup(ctx context.Context, identifier string) (*models.Account, error) {
	if strings.Contains(identifier, "@") {
		return s.accounts.GetAccountByEmail(ctx, validation.NormalizeEmail(identifier))
	}
	return s.accounts.GetAccountByUsername(ctx, identifier)
}

// withHashSlot runs fn once a hashing slot is free. Waiting honors ctx.
func (s *Service) withHashSlot(ctx context.Context, operation string, fn func() error) error {
	if err := s.hashSlots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for hash worker: %w", err)
	}
	defer s.hashSlots.Release(1)

	defer s.metrics.ObserveHash(operation, time.Now())
	return fn()
}

func (s *Service) invalidCredentials() error {
	s.metrics.AuthAttempt(opLogin, observability.ResultInvalidCredentials)
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}

func (s *Service) storageFailure(operation, step string, err error) error {
	s.metrics.AuthAttempt(operation, observability.ResultError)
	return oops.Code("AUTH_STORAGE_UNAVAILABLE").
		With("operation", step).
		Wrap(fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
}
