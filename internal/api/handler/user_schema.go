package handler

import (
	"time"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// createUserRequest carries no roles: signup always yields a client and
// only an admin can grant more through PUT /users/:id.
type createUserRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	CPF      string `json:"cpf"      validate:"omitempty,numeric,len=11"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
}

type updateUserRequest struct {
	Name     *string  `json:"name"     validate:"omitempty,min=1"`
	Email    *string  `json:"email"    validate:"omitempty,email"`
	CPF      *string  `json:"cpf"      validate:"omitempty,numeric,len=11"`
	Password *string  `json:"password" validate:"omitempty,min=6"`
	Phone    *string  `json:"phone"`
	Roles    []string `json:"roles"    validate:"omitempty,dive,oneof=admin client seller"`
}

// userResponse is the public view of a user; the password hash never leaves
// the service.
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CPF       string    `json:"cpf,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toRoles(in []string) []domain.Role {
	if in == nil {
		return nil
	}
	out := make([]domain.Role, len(in))
	for i, r := range in {
		out[i] = domain.Role(r)
	}
	return out
}

func toCreateUserInput(r createUserRequest) ports.CreateUserInput {
	return ports.CreateUserInput{
		Name:     r.Name,
		Email:    r.Email,
		CPF:      r.CPF,
		Password: r.Password,
		Phone:    r.Phone,
	}
}

func toUpdateUserInput(r updateUserRequest) ports.UpdateUserInput {
	return ports.UpdateUserInput{
		Name:     r.Name,
		Email:    r.Email,
		CPF:      r.CPF,
		Password: r.Password,
		Phone:    r.Phone,
		Roles:    toRoles(r.Roles),
	}
}

func toUserResponse(u *domain.User) userResponse {
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CPF:       u.CPF,
		Phone:     u.Phone,
		Roles:     roles,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}
