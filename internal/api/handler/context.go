package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/domain"
)

// ctxIdentity returns the identity injected by the auth gates. Its absence
// means the route was mounted without a gate, which is treated as
// unauthenticated.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.Subject == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return id, nil
}
