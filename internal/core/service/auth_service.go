package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/commerce-api/internal/api/metrics"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// AuthService implements login and session lookups.
type AuthService struct {
	repo  ports.UserRepository
	codec ports.TokenCodec
	log   zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, codec ports.TokenCodec, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, codec: codec, log: log}
}

// Login checks the password against the stored bcrypt hash and issues a token
// carrying the user's id and name.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("not_found").Inc()
			return "", domain.ErrUserNotFound
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("email", email).Msg("login: user lookup failed")
		return "", domain.Internal("login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			metrics.LoginsTotal.WithLabelValues("bad_password").Inc()
			return "", domain.ErrIncorrectPassword
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("login: hash comparison failed")
		return "", domain.Internal("login", err)
	}

	token, err := s.codec.Sign(domain.Identity{Subject: user.ID, Username: user.Name})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("login: token signing failed")
		return "", domain.Internal("login", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, nil
}

// Me returns the profile of the authenticated caller.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.log.Error().Err(err).Str("user_id", userID).Msg("me: user lookup failed")
		return nil, domain.Internal("me", err)
	}
	return user, nil
}
