package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/model"
	"github.com/iliyamo/tour-agency-booking/internal/repository"
)

// DiscountHandler serves staff discount management. Discounts hang off
// packages, so the ownership predicate follows the package's creator.
type DiscountHandler struct {
	Discounts *repository.DiscountRepo
	Packages  *repository.PackageRepo
}

// NewDiscountHandler constructs a DiscountHandler. All dependencies
// must be non-nil.
func NewDiscountHandler(d *repository.DiscountRepo, p *repository.PackageRepo) *DiscountHandler {
	if d == nil || p == nil {
		panic("nil repository passed to NewDiscountHandler")
	}
	return &DiscountHandler{Discounts: d, Packages: p}
}

type discountReq struct {
	PackageID uint64  `json:"package_id"`
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	StartDate string  `json:"start_date"` // "2006-01-02"
	EndDate   string  `json:"end_date"`
}

// validateDiscountReq enforces the discount bounds: positive value,
// percentage capped at 50, fixed amount capped at 100, start strictly
// before end.
func validateDiscountReq(req discountReq) (dType model.DiscountType, start, end time.Time, msg string) {
	switch model.DiscountType(strings.ToUpper(strings.TrimSpace(req.Type))) {
	case model.DiscountPercentage:
		dType = model.DiscountPercentage
		if req.Value > model.MaxPercentageDiscount {
			return dType, start, end, "percentage discount cannot exceed 50"
		}
	case model.DiscountFixed:
		dType = model.DiscountFixed
		if req.Value > model.MaxFixedDiscount {
			return dType, start, end, "fixed discount cannot exceed 100"
		}
	default:
		return dType, start, end, "type must be PERCENTAGE or FIXED"
	}
	if req.Value <= 0 {
		return dType, start, end, "value must be greater than 0"
	}
	var err error
	start, err = time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return dType, start, end, "invalid start_date"
	}
	end, err = time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return dType, start, end, "invalid end_date"
	}
	if !start.Before(end) {
		return dType, start, end, "start_date must be before end_date"
	}
	return dType, start, end, ""
}

// ListDiscounts handles GET /v1/agent/discounts. Admins see every
// discount, agents the ones on their own packages.
func (h *DiscountHandler) ListDiscounts(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	var (
		out     []repository.DiscountDetail
		listErr error
	)
	if id.Role == model.RoleAdmin {
		out, listErr = h.Discounts.List(ctx)
	} else {
		out, listErr = h.Discounts.ListByCreator(ctx, id.UserID)
	}
	if listErr != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, out)
}

// CreateDiscount handles POST /v1/agent/discounts. Agents can only
// attach discounts to packages they created.
func (h *DiscountHandler) CreateDiscount(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req discountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.PackageID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "package_id is required"})
	}
	dType, start, end, msg := validateDiscountReq(req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	pkg, err := h.Packages.GetByID(ctx, req.PackageID)
	if err != nil {
		return domainError(c, err)
	}
	if id.Role != model.RoleAdmin && pkg.CreatedByID != id.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	d := model.Discount{
		PackageID: req.PackageID,
		Type:      dType,
		Value:     req.Value,
		StartDate: start,
		EndDate:   end,
	}
	newID, err := h.Discounts.Create(ctx, &d)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create discount failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": newID})
}

// UpdateDiscount handles PUT /v1/agent/discounts/:id.
func (h *DiscountHandler) UpdateDiscount(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	discID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid discount id"})
	}
	var req discountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	dType, start, end, msg := validateDiscountReq(req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	existing, err := h.Discounts.GetByID(ctx, discID)
	if err != nil {
		return domainError(c, err)
	}
	if id.Role != model.RoleAdmin && existing.PackageOwnerID != id.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	d := model.Discount{ID: discID, Type: dType, Value: req.Value, StartDate: start, EndDate: end}
	if err := h.Discounts.Update(ctx, &d); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": discID})
}

// DeleteDiscount handles DELETE /v1/agent/discounts/:id.
func (h *DiscountHandler) DeleteDiscount(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	discID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid discount id"})
	}
	ctx := c.Request().Context()
	existing, err := h.Discounts.GetByID(ctx, discID)
	if err != nil {
		return domainError(c, err)
	}
	if id.Role != model.RoleAdmin && existing.PackageOwnerID != id.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Discounts.Delete(ctx, discID); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": discID})
}
