package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/model"
	"github.com/iliyamo/tour-agency-booking/internal/repository"
)

// StatsHandler serves the staff dashboard statistics. Admins get
// agency-wide numbers, agents the numbers scoped to their own packages.
type StatsHandler struct {
	Stats *repository.StatsRepo
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(s *repository.StatsRepo) *StatsHandler {
	if s == nil {
		panic("nil repository passed to NewStatsHandler")
	}
	return &StatsHandler{Stats: s}
}

// GetStatistics handles GET /v1/agent/statistics.
func (h *StatsHandler) GetStatistics(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var agentID uint64
	if id.Role != model.RoleAdmin {
		agentID = id.UserID
	}
	stats, err := h.Stats.Collect(c.Request().Context(), agentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, stats)
}
