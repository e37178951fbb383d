// Package token signs and verifies the HS256 bearer tokens handed out at login.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/storefront/commerce-api/internal/core/domain"
)

const defaultTTL = 7 * 24 * time.Hour

// claims is the token payload: the standard subject/expiry plus the username.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Codec implements ports.TokenCodec over a shared secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec returns a Codec signing with secret. A non-positive ttl falls back
// to seven days.
func NewCodec(secret string, ttl time.Duration, opts ...Option) *Codec {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sign produces a token for identity valid for the configured TTL.
func (c *Codec) Sign(identity domain.Identity) (string, error) {
	if len(c.secret) == 0 {
		return "", errors.New("token: empty signing secret")
	}
	now := c.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the embedded
// identity. Expired tokens yield domain.ErrExpiredToken; every other failure
// yields domain.ErrInvalidToken.
func (c *Codec) Verify(raw string) (domain.Identity, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrExpiredToken
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if cl.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	return domain.Identity{Subject: cl.Subject, Username: cl.Username}, nil
}
