package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/auth"
	"github.com/iliyamo/tour-agency-booking/internal/handler"
	"github.com/iliyamo/tour-agency-booking/internal/middleware"
)

// RegisterAgent registers staff endpoints under /v1/agent. The guard's
// permission table admits ADMIN and AGENT here; agents are further
// restricted to their own packages, discounts and reservations by
// per-resource ownership checks in the handlers.
func RegisterAgent(
	e *echo.Echo,
	res *handler.AgentHandler,
	pkg *handler.PackageHandler,
	disc *handler.DiscountHandler,
	stats *handler.StatsHandler,
	g *auth.Guard,
	invalidate echo.MiddlewareFunc,
) {
	grp := e.Group(
		"/v1/agent",
		middleware.Authenticate(g),
		middleware.Authorize(g),
		invalidate,
	)

	grp.GET("/reservations", res.ListReservations)
	grp.GET("/reservations/:id", res.GetReservation)
	grp.PUT("/reservations/:id/status", res.UpdateStatus)

	grp.GET("/packages", pkg.ListOwnPackages)
	grp.POST("/packages", pkg.CreatePackage)
	grp.PUT("/packages/:id", pkg.UpdatePackage)
	grp.DELETE("/packages/:id", pkg.DeletePackage)

	grp.GET("/discounts", disc.ListDiscounts)
	grp.POST("/discounts", disc.CreateDiscount)
	grp.PUT("/discounts/:id", disc.UpdateDiscount)
	grp.DELETE("/discounts/:id", disc.DeleteDiscount)

	grp.GET("/statistics", stats.GetStatistics)
}
