package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// bcryptCost is the work factor for stored password hashes.
const bcryptCost = 12

type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// Create opens a new account. Accounts without explicit roles become clients.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if in.Name == "" || email == "" || in.Password == "" {
		return nil, domain.ErrInvalidUser
	}
	roles, err := normalizeRoles(in.Roles)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleClient}
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, s.internal("create user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, s.internal("create user", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         in.Name,
		Email:        email,
		CPF:          in.CPF,
		PasswordHash: string(hash),
		Roles:        roles,
		Phone:        in.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, s.internal("create user", err)
	}

	s.log.Info().Str("user_id", created.ID).Msg("user created")
	return created, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.internal("list users", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, s.internal("get user", err)
	}
	return user, nil
}

// Update applies the non-nil fields of in to the user identified by id.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			if _, err := s.repo.FindByEmail(ctx, email); err == nil {
				return nil, domain.ErrUserExists
			} else if !errors.Is(err, domain.ErrUserNotFound) {
				return nil, s.internal("update user", err)
			}
		}
		user.Email = email
	}
	if in.CPF != nil {
		user.CPF = *in.CPF
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcryptCost)
		if err != nil {
			return nil, s.internal("update user", err)
		}
		user.PasswordHash = string(hash)
	}
	if in.Roles != nil {
		roles, err := normalizeRoles(in.Roles)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
	}
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, s.internal("update user", err)
	}
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return s.internal("delete user", err)
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) internal(op string, err error) error {
	s.log.Error().Err(err).Str("op", op).Msg("user operation failed")
	return domain.Internal(op, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeRoles rejects unknown roles and drops duplicates, keeping order.
func normalizeRoles(roles []domain.Role) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(roles))
	seen := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return nil, domain.ErrInvalidUser
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}
