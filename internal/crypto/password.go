// Package crypto implements one-way password hashing for account credentials.
//
// Digests are self-describing strings: the algorithm, cost parameters and salt
// are embedded, so verification never needs a side lookup.
package crypto

import (
	"errors"
	"fmt"
	"strings"
)

// Supported hashing algorithms.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

var (
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrMalformedDigest is returned when a stored digest cannot be parsed.
	ErrMalformedDigest = errors.New("malformed password digest")

	// ErrUnsupportedAlgorithm is returned for an unknown algorithm name or digest prefix.
	ErrUnsupportedAlgorithm = errors.New("unsupported password hashing algorithm")

	// ErrCostBelowFloor is returned when hashing parameters are weaker than the allowed minimum.
	ErrCostBelowFloor = errors.New("password hashing cost below allowed minimum")
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash returns a salted digest of password.
	Hash(password string) (string, error)

	// Verify reports whether password matches digest.
	// A mismatch is (false, nil); an unparseable digest is (false, error).
	Verify(password, digest string) (bool, error)
}

// HasherConfig selects the primary algorithm and its cost.
type HasherConfig struct {
	Algorithm  string       `koanf:"algorithm"`
	Argon2     Argon2Params `koanf:"argon2"`
	BcryptCost int          `koanf:"bcrypt_cost"`
}

// DefaultHasherConfig returns argon2id with the default parameters.
func DefaultHasherConfig() HasherConfig {
	return HasherConfig{
		Algorithm:  AlgorithmArgon2id,
		Argon2:     DefaultArgon2Params(),
		BcryptCost: DefaultBcryptCost,
	}
}

// MultiHasher hashes with one primary algorithm and verifies digests of every
// supported algorithm, so accounts hashed with bcrypt keep working after the
// primary switches to argon2id.
type MultiHasher struct {
	primary PasswordHasher
	argon2  *Argon2idHasher
	bcrypt  *BcryptHasher
}

var _ PasswordHasher = (*MultiHasher)(nil)

// NewHasher builds a MultiHasher from cfg.
// Parameters below the floor are rejected, never silently raised.
func NewHasher(cfg HasherConfig) (*MultiHasher, error) {
	argon2Hasher, err := NewArgon2idHasher(cfg.Argon2)
	if err != nil {
		return nil, fmt.Errorf("argon2id: %w", err)
	}

	bcryptHasher, err := NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt: %w", err)
	}

	h := &MultiHasher{
		argon2: argon2Hasher,
		bcrypt: bcryptHasher,
	}

	switch strings.ToLower(cfg.Algorithm) {
	case "", AlgorithmArgon2id:
		h.primary = argon2Hasher
	case AlgorithmBcrypt:
		h.primary = bcryptHasher
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, cfg.Algorithm)
	}

	return h, nil
}

// Hash hashes password with the primary algorithm.
func (h *MultiHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

// Verify dispatches on the digest prefix.
func (h *MultiHasher) Verify(password, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, argon2idPrefix):
		return h.argon2.Verify(password, digest)
	case isBcryptDigest(digest):
		return h.bcrypt.Verify(password, digest)
	default:
		return false, fmt.Errorf("%w: unrecognized digest prefix", ErrMalformedDigest)
	}
}
