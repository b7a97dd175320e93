//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Lekka141/VaultConnect/internal/models"
	"github.com/Lekka141/VaultConnect/internal/server/storage"
	"github.com/Lekka141/VaultConnect/internal/server/storage/postgres"
)

func setupPostgresContainer(ctx context.Context) (*postgres.Storage, func(), error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("vaultconnect_test"),
		tcpostgres.WithUsername("vaultconnect"),
		tcpostgres.WithPassword("vaultconnect"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	migrator, err := postgres.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	store, err := postgres.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	cleanup := func() {
		_ = store.Close()
		_ = container.Terminate(ctx)
	}

	return store, cleanup, nil
}

func newAccount(username, email string) *models.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=1,p=1$salt$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

var _ = Describe("Storage", Ordered, func() {
	var (
		ctx     context.Context
		store   *postgres.Storage
		cleanup func()
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		store, cleanup, err = setupPostgresContainer(ctx)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if cleanup != nil {
			cleanup()
		}
	})

	Describe("CreateAccount", func() {
		It("stores and retrieves an account by every key", func() {
			acc := newAccount("alice", "alice@example.com")
			Expect(store.CreateAccount(ctx, acc)).To(Succeed())

			byID, err := store.GetAccountByID(ctx, acc.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Username).To(Equal("alice"))

			byName, err := store.GetAccountByUsername(ctx, "Alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(byName.ID).To(Equal(acc.ID))

			byEmail, err := store.GetAccountByEmail(ctx, "ALICE@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail.ID).To(Equal(acc.ID))
		})

		It("rejects duplicate usernames and emails", func() {
			Expect(store.CreateAccount(ctx, newAccount("bob", "bob@example.com"))).To(Succeed())

			err := store.CreateAccount(ctx, newAccount("BOB", "other@example.com"))
			Expect(err).To(MatchError(storage.ErrAccountAlreadyExists))

			err = store.CreateAccount(ctx, newAccount("bobby", "Bob@Example.com"))
			Expect(err).To(MatchError(storage.ErrAccountAlreadyExists))
		})

		It("admits exactly one of many concurrent registrations", func() {
			const workers = 10
			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				successes int
				conflicts int
			)

			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					err := store.CreateAccount(ctx, newAccount("racer", uuid.NewString()+"@example.com"))
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						successes++
					} else {
						Expect(err).To(MatchError(storage.ErrAccountAlreadyExists))
						conflicts++
					}
				}()
			}
			wg.Wait()

			Expect(successes).To(Equal(1))
			Expect(conflicts).To(Equal(workers - 1))
		})
	})

	Describe("UpdatePasswordHash", func() {
		It("replaces the digest", func() {
			acc := newAccount("carol", "carol@example.com")
			Expect(store.CreateAccount(ctx, acc)).To(Succeed())

			Expect(store.UpdatePasswordHash(ctx, acc.ID, "$2a$10$replacement", time.Now())).To(Succeed())

			got, err := store.GetAccountByID(ctx, acc.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.PasswordHash).To(Equal("$2a$10$replacement"))
		})

		It("reports unknown accounts", func() {
			err := store.UpdatePasswordHash(ctx, uuid.NewString(), "x", time.Now())
			Expect(err).To(MatchError(storage.ErrAccountNotFound))
		})
	})

	It("answers ping", func() {
		Expect(store.Ping(ctx)).To(Succeed())
	})
})
