package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the identity resolved from a verified token.
type Principal struct {
	Subject string
}

// TokenIssuer creates signed tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// TokenVerifier resolves a token to a Principal.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}

// TokenCodec issues and verifies HS256 compact JWTs under a single key.
// It is immutable after construction and safe for concurrent use.
type TokenCodec struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// CodecOption configures a TokenCodec.
type CodecOption func(*TokenCodec)

// WithTTL makes issued tokens carry an exp claim. Zero disables expiry.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *TokenCodec) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source used for exp.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec copies key; later changes to the caller's slice have no effect.
func NewTokenCodec(key []byte, opts ...CodecOption) (*TokenCodec, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: key is empty", ErrSigningKey)
	}

	c := &TokenCodec{
		key: append([]byte(nil), key...),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl < 0 {
		return nil, fmt.Errorf("%w: negative ttl", ErrSigningKey)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// Issue signs a token whose sub claim is subject. Without a TTL the output
// is a pure function of subject and key.
func (c *TokenCodec) Issue(subject string) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}

	claims := jwt.RegisteredClaims{Subject: subject}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(c.now().Add(c.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks structure and signature and returns the token's principal.
// Errors wrap ErrMalformed, ErrInvalidSignature or ErrExpired.
func (c *TokenCodec) Verify(token string) (Principal, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := c.parser.ParseWithClaims(token, claims, c.keyFunc); err != nil {
		return Principal{}, classifyParseError(err)
	}

	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	return Principal{Subject: claims.Subject}, nil
}

// ExtractSubject is Verify followed by reading the subject.
func (c *TokenCodec) ExtractSubject(token string) (string, error) {
	p, err := c.Verify(token)
	if err != nil {
		return "", err
	}
	return p.Subject, nil
}

func (c *TokenCodec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.key, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
