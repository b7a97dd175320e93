// Package boltdb stores the client session in a local bbolt file.
package boltdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Lekka141/VaultConnect/internal/client/storage"
)

var bucketAuth = []byte("auth")

// openTimeout bounds the wait for the file lock held by another client process.
const openTimeout = time.Second

// Storage is the bbolt implementation of storage.AuthStorage.
type Storage struct {
	db  *bbolt.DB
	now func() time.Time
	mu  sync.RWMutex
}

var _ storage.AuthStorage = (*Storage)(nil)

// Option configures a Storage.
type Option func(*Storage)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

// New opens or creates the database file at dbPath.
func New(ctx context.Context, dbPath string, opts ...Option) (*Storage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initBuckets(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize buckets: %w", err), db.Close())
	}

	return s, nil
}

// Close closes the database. Calling it twice is a no-op.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAuth); err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}
		return nil
	})
}

func (s *Storage) view(fn func(tx *bbolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.View(fn)
}

func (s *Storage) update(fn func(tx *bbolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(fn)
}
