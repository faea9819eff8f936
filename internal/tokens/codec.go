package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature invalid")
	ErrExpired      = errors.New("token expired")
)

type Claims struct {
	Kind Kind `json:"kind"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens with a single process-wide secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("tokens: empty signing secret")
	}
	return &Codec{secret: secret, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) Issue(subject string, kind Kind, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("tokens: empty subject")
	}
	if kind != KindAccess && kind != KindRefresh {
		return "", time.Time{}, fmt.Errorf("tokens: unknown kind %q", kind)
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("tokens: ttl must be positive, got %s", ttl)
	}

	now := c.now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature first and only then the expiry against the codec clock.
func (c *Codec) Verify(token string) (*Claims, error) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	tkn, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !tkn.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" || (claims.Kind != KindAccess && claims.Kind != KindRefresh) {
		return nil, ErrMalformed
	}
	return &claims, nil
}

// ExpiryUnverified reads exp without checking the signature. Only for building
// revocation records from a token the current request already presented; never
// use the result to grant access.
func (c *Codec) ExpiryUnverified(token string) (time.Time, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, ErrMalformed
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformed
	}
	return claims.ExpiresAt.Time, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	}
	return ErrMalformed
}
