package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/auth"
	"github.com/iliyamo/tour-agency-booking/internal/handler"
	"github.com/iliyamo/tour-agency-booking/internal/middleware"
)

// RegisterAdmin registers admin-only endpoints under /v1/admin: user
// management, category management and unrestricted reservation
// deletion. The guard's permission table admits only ADMIN here.
func RegisterAdmin(
	e *echo.Echo,
	users *handler.UserAdminHandler,
	cats *handler.CategoryHandler,
	res *handler.AgentHandler,
	g *auth.Guard,
	invalidate echo.MiddlewareFunc,
) {
	grp := e.Group(
		"/v1/admin",
		middleware.Authenticate(g),
		middleware.Authorize(g),
		invalidate,
	)

	grp.GET("/users", users.ListUsers)
	grp.PUT("/users/:id", users.UpdateUser)
	grp.DELETE("/users/:id", users.DeleteUser)

	grp.POST("/categories", cats.CreateCategory)
	grp.PUT("/categories/:id", cats.UpdateCategory)
	grp.DELETE("/categories/:id", cats.DeleteCategory)

	grp.DELETE("/reservations/:id", res.DeleteReservation)
}
