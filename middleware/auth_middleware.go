// middleware/auth_middleware.go
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/models"
)

// RequireRole checks if the authenticated user has one of the allowed roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFromContext(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication required",
				})
			}

			if !id.HasRole(roles...) {
				c.Logger().Warnf("Access denied for %s with role %s, allowed roles: %v", id.Email, id.Role, roles)
				return c.JSON(http.StatusForbidden, models.Response{
					Status:  http.StatusForbidden,
					Message: "Access denied for your role",
				})
			}
			return next(c)
		}
	}
}
