package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/auth"
	"github.com/iliyamo/tour-agency-booking/internal/handler"
	"github.com/iliyamo/tour-agency-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Unauthenticated
// operations live under /v1/auth and sit behind the rate limiter so
// that credential stuffing and registration floods are throttled at
// the edge; the profile endpoint lives under /v1 and requires a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g *auth.Guard, ratelimit echo.MiddlewareFunc) {
	grp := e.Group("/v1/auth", ratelimit)
	grp.POST("/register", a.Register)
	grp.POST("/login", a.Login)
	grp.POST("/refresh", a.Refresh)
	grp.POST("/logout", a.Logout)

	me := e.Group("/v1", middleware.Authenticate(g), middleware.Authorize(g))
	me.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints:
// active packages with their current discount applied, categories and
// discounts. Responses flow through the Redis cache middleware.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	grp := e.Group("/v1", cache)
	grp.GET("/packages", p.ListPackages)
	grp.GET("/packages/:id", p.GetPackage)
	grp.GET("/categories", p.ListCategories)
	grp.GET("/discounts", p.ListDiscounts)
}
