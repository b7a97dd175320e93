package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

// Argon2 floor (OWASP password storage cheat sheet: m=19 MiB with t=2) and
// parse limits.
const (
	MinArgon2Memory  = 19 * 1024 // KiB
	MinArgon2Time    = 2
	MinArgon2Threads = 1
	MinArgon2SaltLen = 16
	MinArgon2KeyLen  = 16

	maxArgon2Memory = 4 * 1024 * 1024 // 4 GiB in KiB
	maxArgon2KeyLen = 1024
)

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Memory  uint32 `koanf:"memory"` // KiB
	Time    uint32 `koanf:"time"`
	Threads uint8  `koanf:"threads"`
	SaltLen uint32 `koanf:"salt_len"`
	KeyLen  uint32 `koanf:"key_len"`
}

// DefaultArgon2Params returns 64 MiB, two passes, four lanes.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:  64 * 1024,
		Time:    2,
		Threads: 4,
		SaltLen: 16,
		KeyLen:  32,
	}
}

// Validate checks p against the floor.
func (p Argon2Params) Validate() error {
	switch {
	case p.Memory < MinArgon2Memory:
		return fmt.Errorf("%w: memory %d KiB < %d KiB", ErrCostBelowFloor, p.Memory, MinArgon2Memory)
	case p.Time < MinArgon2Time:
		return fmt.Errorf("%w: time %d < %d", ErrCostBelowFloor, p.Time, MinArgon2Time)
	case p.Threads < MinArgon2Threads:
		return fmt.Errorf("%w: threads %d < %d", ErrCostBelowFloor, p.Threads, MinArgon2Threads)
	case p.SaltLen < MinArgon2SaltLen:
		return fmt.Errorf("%w: salt length %d < %d", ErrCostBelowFloor, p.SaltLen, MinArgon2SaltLen)
	case p.KeyLen < MinArgon2KeyLen:
		return fmt.Errorf("%w: key length %d < %d", ErrCostBelowFloor, p.KeyLen, MinArgon2KeyLen)
	}
	return nil
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct {
	params Argon2Params
}

var _ PasswordHasher = (*Argon2idHasher)(nil)

// NewArgon2idHasher creates a hasher with params, which must meet the floor.
func NewArgon2idHasher(params Argon2Params) (*Argon2idHasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Argon2idHasher{params: params}, nil
}

// Hash produces a PHC-formatted argon2id digest:
// $argon2id$v=19$m=65536,t=2,p=4$<salt>$<hash>
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters embedded in digest.
func (h *Argon2idHasher) Verify(password, digest string) (bool, error) {
	params, salt, key, err := decodeArgon2id(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, params.KeyLen)

	return subtle.ConstantTimeCompare(key, computed) == 1, nil
}

func decodeArgon2id(digest string) (Argon2Params, []byte, []byte, error) {
	var params Argon2Params

	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" {
		return params, nil, nil, fmt.Errorf("%w: expected 6 segments", ErrMalformedDigest)
	}
	if parts[1] != AlgorithmArgon2id {
		return params, nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, fmt.Errorf("%w: version: %v", ErrMalformedDigest, err)
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("%w: version %d", ErrUnsupportedAlgorithm, version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return params, nil, nil, fmt.Errorf("%w: parameters: %v", ErrMalformedDigest, err)
	}
	if memory == 0 || memory > maxArgon2Memory || time == 0 || threads == 0 || threads > 255 {
		return params, nil, nil, fmt.Errorf("%w: parameters out of range", ErrMalformedDigest)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedDigest, err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, fmt.Errorf("%w: key: %v", ErrMalformedDigest, err)
	}
	if len(key) == 0 || len(key) > maxArgon2KeyLen {
		return params, nil, nil, fmt.Errorf("%w: key length %d", ErrMalformedDigest, len(key))
	}

	params = Argon2Params{
		Memory:  memory,
		Time:    time,
		Threads: uint8(threads),
		SaltLen: uint32(len(salt)),
		KeyLen:  uint32(len(key)),
	}

	return params, salt, key, nil
}
