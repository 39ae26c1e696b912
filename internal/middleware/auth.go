package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/auth"
)

// identityKey is the context key under which the authenticated
// identity is stored.
const identityKey = "identity"

// Authenticate returns a middleware that resolves the caller's
// identity from the Authorization header through the guard and stores
// it in the request context. Requests without a valid credential are
// rejected with 401 before any handler runs.
func Authenticate(g *auth.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := g.Authenticate(c.Request().Header.Get("Authorization"))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// Authorize returns a middleware enforcing the guard's role permission
// table against the request path. It assumes Authenticate ran earlier
// in the chain.
func Authorize(g *auth.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
			}
			if err := g.Authorize(c.Request().URL.Path, id); err != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// IdentityFrom extracts the authenticated identity stored by
// Authenticate. The second return is false when the middleware did not
// run (unprotected route).
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(auth.Identity)
	return id, ok
}
