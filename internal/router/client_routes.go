package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/auth"
	"github.com/iliyamo/tour-agency-booking/internal/handler"
	"github.com/iliyamo/tour-agency-booking/internal/middleware"
)

// RegisterClient registers client-scoped endpoints under /v1/client.
// The guard's permission table restricts this prefix to the CLIENT
// role; ownership of individual reservations is validated in the
// handlers and the ledger. Reservation writes move package capacity,
// so the group carries the catalog invalidation middleware.
func RegisterClient(e *echo.Echo, h *handler.ClientHandler, g *auth.Guard, invalidate echo.MiddlewareFunc) {
	grp := e.Group(
		"/v1/client",
		middleware.Authenticate(g),
		middleware.Authorize(g),
		invalidate,
	)
	grp.POST("/reservations", h.CreateReservation)
	grp.GET("/reservations", h.ListReservations)
	grp.GET("/reservations/:id", h.GetReservation)
	grp.PUT("/reservations/:id/cancel", h.CancelReservation)
	grp.DELETE("/reservations/:id", h.DeleteReservation)
}
