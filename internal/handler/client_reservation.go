package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/ledger"
	"github.com/iliyamo/tour-agency-booking/internal/model"
	"github.com/iliyamo/tour-agency-booking/internal/repository"
)

// ClientHandler serves the client-facing reservation endpoints. All
// methods assume that authentication and the route-level role check
// have been performed by middleware; ownership checks on individual
// reservations happen here and in the ledger.
type ClientHandler struct {
	Ledger       *ledger.Ledger
	Reservations *repository.ReservationRepo
}

// NewClientHandler constructs a ClientHandler. All dependencies must
// be non-nil.
func NewClientHandler(l *ledger.Ledger, r *repository.ReservationRepo) *ClientHandler {
	if l == nil || r == nil {
		panic("nil dependency passed to NewClientHandler")
	}
	return &ClientHandler{Ledger: l, Reservations: r}
}

// CreateReservation handles POST /v1/client/reservations. The body
// must name a package and a positive guest count; the ledger runs the
// soft admission check against aggregate non-cancelled demand.
func (h *ClientHandler) CreateReservation(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		PackageID      uint64 `json:"package_id"`
		NumberOfGuests uint32 `json:"number_of_guests"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PackageID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "package_id is required"})
	}
	if body.NumberOfGuests == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "number_of_guests must be positive"})
	}

	r, err := h.Ledger.CreateReservation(c.Request().Context(), id, body.PackageID, body.NumberOfGuests)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":               r.ID,
		"package_id":       r.PackageID,
		"number_of_guests": r.NumberOfGuests,
		"status":           r.Status,
		"created_at":       r.CreatedAt,
	})
}

// ListReservations handles GET /v1/client/reservations and returns the
// caller's own reservations.
func (h *ClientHandler) ListReservations(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	out, err := h.Reservations.ListByUser(c.Request().Context(), id.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, out)
}

// GetReservation handles GET /v1/client/reservations/:id. Clients can
// only read their own reservations.
func (h *ClientHandler) GetReservation(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	d, err := h.Reservations.GetDetail(c.Request().Context(), resID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if d.UserID != id.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, d)
}

// CancelReservation handles PUT /v1/client/reservations/:id/cancel.
// Clients can cancel their own PENDING or CONFIRMED reservations; a
// confirmed cancellation credits the package capacity back.
func (h *ClientHandler) CancelReservation(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	r, err := h.Ledger.TransitionReservation(c.Request().Context(), id, resID, model.StatusCancelled)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": r.ID, "status": r.Status})
}

// DeleteReservation handles DELETE /v1/client/reservations/:id.
// Clients may delete only their own reservations while still PENDING;
// a confirmed reservation has to be cancelled instead.
func (h *ClientHandler) DeleteReservation(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Ledger.DeleteReservation(c.Request().Context(), id, resID); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": resID})
}
