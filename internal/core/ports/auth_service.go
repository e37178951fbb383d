package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// TokenCodec signs and verifies bearer tokens.
type TokenCodec interface {
	Sign(identity domain.Identity) (string, error)
	// Verify returns domain.ErrExpiredToken for tokens past their expiry and
	// domain.ErrInvalidToken for anything else that fails verification.
	Verify(token string) (domain.Identity, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}
