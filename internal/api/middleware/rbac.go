package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/core/domain"
)

type policyKind int

const (
	policyOpen policyKind = iota
	policyAuthenticated
	policyRoles
)

// Policy is the access rule declared for a route.
type Policy struct {
	kind  policyKind
	roles []domain.Role
}

// Open lets every request through, authenticated or not.
func Open() Policy { return Policy{kind: policyOpen} }

// Authenticated requires a valid token (AuthenticationGate semantics).
func Authenticated() Policy { return Policy{kind: policyAuthenticated} }

// RequireRoles requires the caller's stored roles to intersect roles.
// With no roles it is Open: authentication is not enforced either.
func RequireRoles(roles ...domain.Role) Policy {
	if len(roles) == 0 {
		return Open()
	}
	return Policy{kind: policyRoles, roles: append([]domain.Role(nil), roles...)}
}

// IsOpen reports whether p lets unauthenticated requests through.
func (p Policy) IsOpen() bool { return p.kind == policyOpen }

// Guard returns the middleware enforcing p.
func (g *Gate) Guard(p Policy) echo.MiddlewareFunc {
	switch p.kind {
	case policyAuthenticated:
		return g.Authenticate()
	case policyRoles:
		return g.Authorize(p.roles...)
	default:
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
}

// Authorize verifies the token, re-fetches the user on every call and requires
// one of roles. Missing, invalid, deleted-user and role-mismatch failures all
// surface as domain.ErrUnauthorized; an expired token surfaces as
// domain.ErrExpiredToken. With no roles every request passes.
func (g *Gate) Authorize(roles ...domain.Role) echo.MiddlewareFunc {
	if len(roles) == 0 {
		return g.Guard(Open())
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			out := g.authenticate(c.Request())
			switch out.Status {
			case StatusAuthenticated:
			case StatusExpired:
				g.reject(c, "authorization", out.Status.reason())
				return domain.ErrExpiredToken
			default:
				g.reject(c, "authorization", out.Status.reason())
				return domain.ErrUnauthorized
			}

			user, err := g.users.FindByID(c.Request().Context(), out.Identity.Subject)
			if err != nil {
				if !errors.Is(err, domain.ErrUserNotFound) {
					g.log.Error().Err(err).Str("user_id", out.Identity.Subject).Msg("authorization: user lookup failed")
				}
				g.reject(c, "authorization", "user_not_found")
				return domain.ErrUnauthorized
			}

			if !user.HasAnyRole(roles...) {
				g.reject(c, "authorization", "role_mismatch")
				return domain.ErrUnauthorized
			}

			attachIdentity(c, out.Identity)
			return next(c)
		}
	}
}
