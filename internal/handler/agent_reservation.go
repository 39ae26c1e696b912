package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/ledger"
	"github.com/iliyamo/tour-agency-booking/internal/model"
	"github.com/iliyamo/tour-agency-booking/internal/queue"
	"github.com/iliyamo/tour-agency-booking/internal/repository"
	queue_publisher "github.com/iliyamo/tour-agency-booking/internal/service"
)

// AgentHandler serves the staff-facing reservation endpoints: listing
// reservations on the agent's packages (admins see everything) and
// driving the status state machine. Capacity arithmetic stays inside
// the ledger; this layer only translates HTTP.
type AgentHandler struct {
	Ledger       *ledger.Ledger
	Reservations *repository.ReservationRepo
}

// NewAgentHandler constructs an AgentHandler. All dependencies must be
// non-nil.
func NewAgentHandler(l *ledger.Ledger, r *repository.ReservationRepo) *AgentHandler {
	if l == nil || r == nil {
		panic("nil dependency passed to NewAgentHandler")
	}
	return &AgentHandler{Ledger: l, Reservations: r}
}

// ListReservations handles GET /v1/agent/reservations. Admins get the
// full list, agents the reservations on packages they created.
func (h *AgentHandler) ListReservations(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	var (
		out     []repository.ReservationDetail
		listErr error
	)
	if id.Role == model.RoleAdmin {
		out, listErr = h.Reservations.ListAll(ctx)
	} else {
		out, listErr = h.Reservations.ListByAgent(ctx, id.UserID)
	}
	if listErr != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, out)
}

// GetReservation handles GET /v1/agent/reservations/:id. Agents can
// only read reservations on their own packages.
func (h *AgentHandler) GetReservation(c echo.Context) error {
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
	if id.Role != model.RoleAdmin && d.PackageOwnerID != id.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, d)
}

// UpdateStatus handles PUT /v1/agent/reservations/:id/status. The body
// carries the target status; the ledger enforces the state machine,
// the ownership predicate and the capacity debit/credit. A successful
// confirmation is announced on the message queue for downstream
// consumers; publish failures are logged inside the publisher and do
// not fail the request, the reservation is already committed.
func (h *AgentHandler) UpdateStatus(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	target := strings.ToUpper(strings.TrimSpace(body.Status))
	if !model.ValidStatus(target) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	r, err := h.Ledger.TransitionReservation(c.Request().Context(), id, resID, model.ReservationStatus(target))
	if err != nil {
		return domainError(c, err)
	}

	if r.Status == model.StatusConfirmed {
		if d, derr := h.Reservations.GetDetail(c.Request().Context(), r.ID); derr == nil {
			_ = queue_publisher.PublishReservationConfirmed(c.Request().Context(), queue.ReservationConfirmedEvent{
				ReservationID:  r.ID,
				UserID:         r.UserID,
				PackageID:      r.PackageID,
				Destination:    d.Destination,
				NumberOfGuests: r.NumberOfGuests,
				TotalPrice:     d.Price * float64(r.NumberOfGuests),
				ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
			})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"id": r.ID, "status": r.Status})
}

// DeleteReservation handles DELETE /v1/admin/reservations/:id. Only
// admins reach this route; deleting a confirmed reservation credits
// the package capacity exactly once.
func (h *AgentHandler) DeleteReservation(c echo.Context) error {
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
