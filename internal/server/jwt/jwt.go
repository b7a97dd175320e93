// Package jwt issues and verifies HS256 session tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// MinSecretLen is the minimum signing secret length in bytes (HS256 key size).
const MinSecretLen = 32

var (
	ErrSecretRequired = errors.New("jwt signing secret is required")
	ErrSecretTooShort = fmt.Errorf("jwt signing secret must be at least %d bytes", MinSecretLen)
	ErrInvalidTTL     = errors.New("jwt ttl must be positive")

	// ErrMalformedToken covers anything that is not a well-formed HS256 token
	// with sub and exp claims.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature means the signature does not match the server secret.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpired means now >= exp.
	ErrExpired = errors.New("token expired")
)

// Token is an issued session token.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the identity recovered from a verified token.
type Claims struct {
	AccountID string
	Username  string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens. It is immutable after construction and
// safe for concurrent use.
type Service struct {
	now    func() time.Time
	parser *jwt.Parser
	secret []byte
	ttl    time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a token service. The secret must be at least MinSecretLen bytes.
func NewService(secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if len(secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	s := &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		// Strict decoding rejects non-zero padding bits, so every character
		// of the signature segment is significant. Expiry is the only
		// time-based rule, so the library's claim validation (which would
		// also enforce nbf) is skipped and exp is checked in Verify.
		parser: jwt.NewParser(jwt.WithStrictDecoding(), jwt.WithoutClaimsValidation()),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for accountID with exp = iat + TTL.
func (s *Service) Issue(accountID, username string) (Token, error) {
	if accountID == "" {
		return Token{}, errors.New("account id is required")
	}

	// NumericDate has second precision; keep the returned times equal to the encoded ones.
	now := s.now().Truncate(time.Second)
	expiresAt := now.Add(s.ttl)

	claims := sessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        ulid.Make().String(),
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return Token{
		Value:     value,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the signature and expiry of token and returns its claims.
// Errors are ErrMalformedToken, ErrInvalidSignature or ErrExpired.
func (s *Service) Verify(token string) (Claims, error) {
	var claims sessionClaims

	parsed, err := s.parser.ParseWithClaims(token, &claims, s.keyFunc)
	if err != nil {
		return Claims{}, classify(parsed, err)
	}

	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing expiry", ErrMalformedToken)
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return Claims{}, fmt.Errorf("%w: expired at %s", ErrExpired, claims.ExpiresAt.Time.Format(time.RFC3339))
	}

	out := Claims{
		AccountID: claims.Subject,
		Username:  claims.Username,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	return out, nil
}

func (s *Service) keyFunc(token *jwt.Token) (any, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}

// classify maps parser errors onto the package sentinels. The parser only
// resolves the signing method once header and claims are decoded, so a
// malformed error on a token with a method came from the signature segment.
func classify(parsed *jwt.Token, err error) error {
	signatureStage := parsed != nil && parsed.Method != nil

	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed) && signatureStage:
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
