package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// CreateUserInput carries the data needed to open an account.
type CreateUserInput struct {
	Name     string
	Email    string
	CPF      string
	Password string
	Phone    string
	Roles    []domain.Role
}

// UpdateUserInput carries a partial update. Nil fields are left untouched.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	CPF      *string
	Password *string
	Phone    *string
	Roles    []domain.Role
}

// UserService defines use-case operations for users.
type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
