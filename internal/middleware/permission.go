package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nvarela/coldtrack/internal/auth"
)

// RequirePermission gates a route on the permission matrix.  It must run
// after JWTAuth, which stores the caller's role in the context.  Callers
// without the role claim get 401; roles that fail the matrix check get
// 403.
func RequirePermission(op auth.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing role"})
			}
			if !auth.Can(role, op) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}
