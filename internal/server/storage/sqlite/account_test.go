package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lekka141/VaultConnect/internal/models"
	"github.com/Lekka141/VaultConnect/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func newAccount(username, email string) *models.Account {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		DisplayName:  "Test " + username,
		PasswordHash: "$argon2id$v=19$m=19456,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAccountStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	acc := newAccount("alice", "alice@example.com")
	require.NoError(t, s.CreateAccount(ctx, acc))

	tests := []struct {
		name string
		get  func() (*models.Account, error)
	}{
		{name: "by id", get: func() (*models.Account, error) { return s.GetAccountByID(ctx, acc.ID) }},
		{name: "by username", get: func() (*models.Account, error) { return s.GetAccountByUsername(ctx, "alice") }},
		{name: "by username case-insensitive", get: func() (*models.Account, error) { return s.GetAccountByUsername(ctx, "ALICE") }},
		{name: "by email", get: func() (*models.Account, error) { return s.GetAccountByEmail(ctx, "alice@example.com") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.get()
			require.NoError(t, err)
			assert.Equal(t, acc.ID, got.ID)
			assert.Equal(t, acc.Username, got.Username)
			assert.Equal(t, acc.Email, got.Email)
			assert.Equal(t, acc.DisplayName, got.DisplayName)
			assert.Equal(t, acc.PasswordHash, got.PasswordHash)
			assert.True(t, acc.CreatedAt.Equal(got.CreatedAt))
		})
	}
}

func TestAccountStorage_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetAccountByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)

	_, err = s.GetAccountByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)

	_, err = s.GetAccountByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)

	err = s.UpdatePasswordHash(ctx, uuid.New().String(), "digest", time.Now())
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)
}

func TestAccountStorage_CreateAccount_Duplicates(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateAccount(ctx, newAccount("duplicate", "dup@example.com")))

	tests := []struct {
		name    string
		account *models.Account
	}{
		{name: "same username", account: newAccount("duplicate", "other@example.com")},
		{name: "same username different case", account: newAccount("DUPLICATE", "other2@example.com")},
		{name: "same email", account: newAccount("other", "dup@example.com")},
		{name: "same email different case", account: newAccount("other3", "DUP@example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateAccount(ctx, tt.account)
			assert.ErrorIs(t, err, storage.ErrAccountAlreadyExists)
		})
	}

	dupID := newAccount("fresh", "fresh@example.com")
	existing, err := s.GetAccountByUsername(ctx, "duplicate")
	require.NoError(t, err)
	dupID.ID = existing.ID
	assert.ErrorIs(t, s.CreateAccount(ctx, dupID), storage.ErrAccountAlreadyExists)
}

func TestAccountStorage_ConcurrentCreateSameUsername(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, filepath.Join(t.TempDir(), "race.db"))
	require.NoError(t, err)
	defer s.Close()

	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateAccount(ctx, newAccount("racer", uuid.NewString()+"@example.com"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, storage.ErrAccountAlreadyExists):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}

func TestAccountStorage_UpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	acc := newAccount("bob", "bob@example.com")
	require.NoError(t, s.CreateAccount(ctx, acc))

	later := acc.UpdatedAt.Add(time.Hour)
	require.NoError(t, s.UpdatePasswordHash(ctx, acc.ID, "$2a$10$newdigest", later))

	got, err := s.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$newdigest", got.PasswordHash)
	assert.True(t, later.Equal(got.UpdatedAt))
	assert.True(t, acc.CreatedAt.Equal(got.CreatedAt))
}

func TestStorage_Ping(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	assert.NoError(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
