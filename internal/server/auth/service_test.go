package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lekka141/VaultConnect/internal/crypto"
	"github.com/Lekka141/VaultConnect/internal/models"
	"github.com/Lekka141/VaultConnect/internal/observability"
	"github.com/Lekka141/VaultConnect/internal/server/jwt"
	"github.com/Lekka141/VaultConnect/internal/server/storage"
	"github.com/Lekka141/VaultConnect/pkg/errutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memStore is an in-memory AccountStorage with the same uniqueness rules as the SQL stores.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	writes   atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]*models.Account)}
}

func (m *memStore) CreateAccount(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes.Add(1)

	for _, a := range m.accounts {
		if strings.EqualFold(a.Username, account.Username) || strings.EqualFold(a.Email, account.Email) {
			return storage.ErrAccountAlreadyExists
		}
	}
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *memStore) find(match func(a *models.Account) bool) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, storage.ErrAccountNotFound
}

func (m *memStore) GetAccountByUsername(_ context.Context, username string) (*models.Account, error) {
	return m.find(func(a *models.Account) bool { return strings.EqualFold(a.Username, username) })
}

func (m *memStore) GetAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	return m.find(func(a *models.Account) bool { return strings.EqualFold(a.Email, email) })
}

func (m *memStore) GetAccountByID(_ context.Context, id string) (*models.Account, error) {
	return m.find(func(a *models.Account) bool { return a.ID == id })
}

func (m *memStore) UpdatePasswordHash(_ context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes.Add(1)

	a, ok := m.accounts[id]
	if !ok {
		return storage.ErrAccountNotFound
	}
	a.PasswordHash = passwordHash
	a.UpdatedAt = updatedAt
	return nil
}

// plainHasher keeps unit tests fast and counts calls.
type plainHasher struct {
	hashCalls   atomic.Int32
	verifyCalls atomic.Int32
}

func (h *plainHasher) Hash(password string) (string, error) {
	h.hashCalls.Add(1)
	if password == "" {
		return "", crypto.ErrEmptyPassword
	}
	return "plain$" + password, nil
}

func (h *plainHasher) Verify(password, digest string) (bool, error) {
	h.verifyCalls.Add(1)
	stored, ok := strings.CutPrefix(digest, "plain$")
	if !ok {
		return false, crypto.ErrMalformedDigest
	}
	return stored == password, nil
}

type fixture struct {
	svc     *Service
	store   *memStore
	hasher  *plainHasher
	tokens  *jwt.Service
	metrics *observability.Metrics
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	tokens, err := jwt.NewService(testSecret, time.Hour)
	require.NoError(t, err)

	f := &fixture{
		store:   newMemStore(),
		hasher:  &plainHasher{},
		tokens:  tokens,
		metrics: observability.NewMetrics(prometheus.NewRegistry()),
	}

	opts = append([]Option{WithMetrics(f.metrics)}, opts...)
	f.svc, err = NewService(slog.New(slog.DiscardHandler), f.store, f.hasher, tokens, opts...)
	require.NoError(t, err)

	return f
}

func (f *fixture) register(t *testing.T, username, email, password string) *Result {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	return res
}

func (f *fixture) attempts(op, result string) float64 {
	return testutil.ToFloat64(f.metrics.AuthAttemptsTotal.WithLabelValues(op, result))
}

func TestService_Register(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Register(context.Background(), RegisterInput{
		Username:    "alice",
		Email:       " Alice@Example.com ",
		Password:    "correct horse",
		DisplayName: " Alice ",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Account.ID)
	assert.Equal(t, "alice", res.Account.Username)
	assert.Equal(t, "alice@example.com", res.Account.Email)
	assert.Equal(t, "Alice", res.Account.DisplayName)
	assert.Equal(t, "plain$correct horse", res.Account.PasswordHash)
	assert.EqualValues(t, 1, f.store.writes.Load(), "register performs exactly one write")

	claims, err := f.tokens.Verify(res.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID, claims.AccountID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, 1.0, f.attempts(opRegister, observability.ResultSuccess))
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{name: "bad username", input: RegisterInput{Username: "a b", Email: "a@example.com", Password: "password1"}, field: "username"},
		{name: "missing email", input: RegisterInput{Username: "alice", Password: "password1"}, field: "email"},
		{name: "bad email", input: RegisterInput{Username: "alice", Email: "nope", Password: "password1"}, field: "email"},
		{name: "short password", input: RegisterInput{Username: "alice", Email: "a@example.com", Password: "short"}, field: "password"},
		{name: "long password", input: RegisterInput{Username: "alice", Email: "a@example.com", Password: strings.Repeat("x", 73)}, field: "password"},
		{name: "long display name", input: RegisterInput{Username: "alice", Email: "a@example.com", Password: "password1", DisplayName: strings.Repeat("n", 65)}, field: "display_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			hashesBefore := f.hasher.hashCalls.Load()

			_, err := f.svc.Register(context.Background(), tt.input)
			require.ErrorIs(t, err, ErrValidation)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			errutil.AssertErrorCode(t, err, "AUTH_VALIDATION_FAILED")

			assert.Equal(t, hashesBefore, f.hasher.hashCalls.Load())
			assert.Zero(t, f.store.writes.Load())
		})
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
	}{
		{name: "same username", username: "alice", email: "other@example.com"},
		{name: "same username other case", username: "ALICE", email: "other@example.com"},
		{name: "same email", username: "bob", email: "alice@example.com"},
		{name: "same email other case", username: "bob", email: "ALICE@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.register(t, "alice", "alice@example.com", "password1")
			hashesBefore := f.hasher.hashCalls.Load()

			_, err := f.svc.Register(context.Background(), RegisterInput{Username: tt.username, Email: tt.email, Password: "password2"})
			assert.ErrorIs(t, err, ErrDuplicateAccount)
			errutil.AssertErrorCode(t, err, "AUTH_DUPLICATE_ACCOUNT")

			assert.Equal(t, hashesBefore, f.hasher.hashCalls.Load(), "pre-check rejects before hashing")
			assert.EqualValues(t, 1, f.store.writes.Load())
		})
	}
}

func TestService_Register_StoreUniqueViolationIsDuplicate(t *testing.T) {
	tokens, err := jwt.NewService(testSecret, time.Hour)
	require.NoError(t, err)

	mock := &storage.AccountStorageMock{
		GetAccountByUsernameFunc: func(context.Context, string) (*models.Account, error) { return nil, storage.ErrAccountNotFound },
		GetAccountByEmailFunc:    func(context.Context, string) (*models.Account, error) { return nil, storage.ErrAccountNotFound },
		CreateAccountFunc:        func(context.Context, *models.Account) error { return storage.ErrAccountAlreadyExists },
	}

	svc, err := NewService(slog.New(slog.DiscardHandler), mock, &plainHasher{}, tokens)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrDuplicateAccount)
	assert.Len(t, mock.CreateAccountCalls(), 1)
}

func TestService_Register_ConcurrentSameUsername(t *testing.T) {
	f := newFixture(t, WithHashWorkers(2))

	const workers = 16
	var (
		wg         sync.WaitGroup
		successes  atomic.Int32
		duplicates atomic.Int32
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Register(context.Background(), RegisterInput{
				Username: "racer",
				Email:    "racer@example.com",
				Password: "password1",
			})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrDuplicateAccount):
				duplicates.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes.Load())
	assert.EqualValues(t, workers-1, duplicates.Load())
}

func TestService_Register_StorageFailure(t *testing.T) {
	tokens, err := jwt.NewService(testSecret, time.Hour)
	require.NoError(t, err)

	boom := errors.New("disk I/O error")

	tests := []struct {
		name string
		mock *storage.AccountStorageMock
	}{
		{
			name: "lookup fails",
			mock: &storage.AccountStorageMock{
				GetAccountByUsernameFunc: func(context.Context, string) (*models.Account, error) { return nil, boom },
			},
		},
		{
			name: "create fails",
			mock: &storage.AccountStorageMock{
				GetAccountByUsernameFunc: func(context.Context, string) (*models.Account, error) { return nil, storage.ErrAccountNotFound },
				GetAccountByEmailFunc:    func(context.Context, string) (*models.Account, error) { return nil, storage.ErrAccountNotFound },
				CreateAccountFunc:        func(context.Context, *models.Account) error { return boom },
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(slog.New(slog.DiscardHandler), tt.mock, &plainHasher{}, tokens)
			require.NoError(t, err)

			_, err = svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password1"})
			assert.ErrorIs(t, err, ErrStorageUnavailable)
			assert.ErrorIs(t, err, boom)
			errutil.AssertErrorCode(t, err, "AUTH_STORAGE_UNAVAILABLE")
		})
	}
}

func TestService_Login(t *testing.T) {
	f := newFixture(t)
	registered := f.register(t, "alice", "alice@example.com", "password1")
	writes := f.store.writes.Load()

	for _, identifier := range []string{"alice", "ALICE", "alice@example.com", " Alice@Example.com "} {
		t.Run(identifier, func(t *testing.T) {
			res, err := f.svc.Login(context.Background(), LoginInput{Identifier: identifier, Password: "password1"})
			require.NoError(t, err)
			assert.Equal(t, registered.Account.ID, res.Account.ID)

			claims, err := f.tokens.Verify(res.Token.Value)
			require.NoError(t, err)
			assert.Equal(t, registered.Account.ID, claims.AccountID)
		})
	}

	assert.Equal(t, writes, f.store.writes.Load(), "login performs no writes")
}

func TestService_Login_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice", "alice@example.com", "password1")

	verifyBefore := f.hasher.verifyCalls.Load()
	_, unknownErr := f.svc.Login(context.Background(), LoginInput{Identifier: "mallory", Password: "password1"})
	unknownVerifies := f.hasher.verifyCalls.Load() - verifyBefore

	verifyBefore = f.hasher.verifyCalls.Load()
	_, wrongErr := f.svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "password2"})
	wrongVerifies := f.hasher.verifyCalls.Load() - verifyBefore

	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Equal(t, unknownVerifies, wrongVerifies, "unknown identifiers still run one verification")
	assert.EqualValues(t, 1, unknownVerifies)
	assert.Equal(t, 2.0, f.attempts(opLogin, observability.ResultInvalidCredentials))
}

func TestService_Login_MalformedStoredDigestFailsClosed(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "alice", "alice@example.com", "password1")
	require.NoError(t, f.store.UpdatePasswordHash(context.Background(), res.Account.ID, "garbage", time.Now()))

	_, err := f.svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Login_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), LoginInput{Identifier: "  ", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Login(context.Background(), LoginInput{Identifier: "alice"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_Login_StorageFailure(t *testing.T) {
	tokens, err := jwt.NewService(testSecret, time.Hour)
	require.NoError(t, err)

	mock := &storage.AccountStorageMock{
		GetAccountByEmailFunc: func(context.Context, string) (*models.Account, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc, err := NewService(slog.New(slog.DiscardHandler), mock, &plainHasher{}, tokens)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Identifier: "alice@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "alice@example.com", mock.GetAccountByEmailCalls()[0].Email)
}

func TestService_Login_CancelledWhileWaitingForHashWorker(t *testing.T) {
	f := newFixture(t, WithHashWorkers(1))
	f.register(t, "alice", "alice@example.com", "password1")

	// Occupy the only hashing slot.
	require.NoError(t, f.svc.hashSlots.Acquire(context.Background(), 1))
	defer f.svc.hashSlots.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "password1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "alice", "alice@example.com", "password1")

	require.NoError(t, f.svc.ChangePassword(context.Background(), res.Account.ID, "password1", "password2"))

	_, err := f.svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "password2"})
	assert.NoError(t, err)

	// Tokens issued before the change remain valid until expiry.
	_, err = f.tokens.Verify(res.Token.Value)
	assert.NoError(t, err)
}

func TestService_ChangePassword_Errors(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "alice", "alice@example.com", "password1")

	err := f.svc.ChangePassword(context.Background(), res.Account.ID, "wrong-pass", "password2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = f.svc.ChangePassword(context.Background(), res.Account.ID, "password1", "short")
	assert.ErrorIs(t, err, ErrValidation)

	err = f.svc.ChangePassword(context.Background(), "missing-id", "password1", "password2")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestService_Profile(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "alice", "alice@example.com", "password1")

	acc, err := f.svc.Profile(context.Background(), res.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", acc.Username)

	_, err = f.svc.Profile(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestService_WithRealHasher(t *testing.T) {
	tokens, err := jwt.NewService(testSecret, time.Hour)
	require.NoError(t, err)

	hasher, err := crypto.NewHasher(crypto.HasherConfig{
		Algorithm: crypto.AlgorithmArgon2id,
		Argon2: crypto.Argon2Params{
			Memory:  crypto.MinArgon2Memory,
			Time:    crypto.MinArgon2Time,
			Threads: 1,
			SaltLen: 16,
			KeyLen:  32,
		},
		BcryptCost: crypto.MinBcryptCost,
	})
	require.NoError(t, err)

	store := newMemStore()
	svc, err := NewService(slog.New(slog.DiscardHandler), store, hasher, tokens)
	require.NoError(t, err)

	res, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Account.PasswordHash, "$argon2id$"))
	assert.NotContains(t, res.Account.PasswordHash, "password1")

	_, err = svc.Login(context.Background(), LoginInput{Identifier: "alice", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Identifier: "nobody", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
