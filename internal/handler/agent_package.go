package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/model"
	"github.com/iliyamo/tour-agency-booking/internal/repository"
)

// PackageHandler serves staff package management: create, edit, delete
// and the agent's own-package listing. Route-level middleware has
// already restricted callers to ADMIN/AGENT; ownership of individual
// packages is checked here.
type PackageHandler struct {
	Packages   *repository.PackageRepo
	Categories *repository.CategoryRepo
}

// NewPackageHandler constructs a PackageHandler. All dependencies must
// be non-nil.
func NewPackageHandler(p *repository.PackageRepo, c *repository.CategoryRepo) *PackageHandler {
	if p == nil || c == nil {
		panic("nil repository passed to NewPackageHandler")
	}
	return &PackageHandler{Packages: p, Categories: c}
}

type packageReq struct {
	Destination    string  `json:"destination"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	NumberOfNights uint32  `json:"number_of_nights"`
	Capacity       *uint32 `json:"capacity"`
	StartDate      string  `json:"start_date"` // "2006-01-02"
	EndDate        string  `json:"end_date"`
	CategoryID     uint64  `json:"category_id"`
	Image          *string `json:"image"`
	IsActive       *bool   `json:"is_active"`
}

// validatePackageReq enforces the business bounds on package input:
// positive bounded price, positive nights and capacity, start strictly
// before end. It returns the parsed dates on success.
func validatePackageReq(req packageReq) (start, end time.Time, msg string) {
	if strings.TrimSpace(req.Destination) == "" || req.CategoryID == 0 {
		return start, end, "destination and category_id are required"
	}
	if req.Price <= 0 {
		return start, end, "price must be greater than 0"
	}
	if req.Price > model.MaxPrice {
		return start, end, "price is out of bounds"
	}
	if req.NumberOfNights == 0 {
		return start, end, "number_of_nights must be greater than 0"
	}
	if req.Capacity != nil && *req.Capacity == 0 {
		return start, end, "capacity must be greater than 0"
	}
	if req.Capacity != nil && *req.Capacity > model.MaxCapacity {
		return start, end, "capacity is out of bounds"
	}
	var err error
	start, err = time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return start, end, "invalid start_date"
	}
	end, err = time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return start, end, "invalid end_date"
	}
	if !start.Before(end) {
		return start, end, "start_date must be before end_date"
	}
	return start, end, ""
}

// CreatePackage handles POST /v1/agent/packages.
func (h *PackageHandler) CreatePackage(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, msg := validatePackageReq(req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()
	ok, err := h.Categories.Exists(ctx, req.CategoryID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	capacity := uint32(model.DefaultCapacity)
	if req.Capacity != nil {
		capacity = *req.Capacity
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := model.TourPackage{
		Destination:    strings.TrimSpace(req.Destination),
		Description:    req.Description,
		Price:          req.Price,
		NumberOfNights: req.NumberOfNights,
		Capacity:       capacity,
		StartDate:      start,
		EndDate:        end,
		CategoryID:     req.CategoryID,
		CreatedByID:    id.UserID,
		Image:          req.Image,
		IsActive:       active,
	}
	if err := h.Packages.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create package failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": p.ID})
}

// UpdatePackage handles PUT /v1/agent/packages/:id. Agents may edit
// only packages they created; admins any. The capacity field may be
// edited directly here as a staff operation outside the reservation
// flow.
func (h *PackageHandler) UpdatePackage(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pkgID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	var req packageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, msg := validatePackageReq(req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	existing, err := h.Packages.GetByID(ctx, pkgID)
	if err != nil {
		return domainError(c, err)
	}
	if id.Role != model.RoleAdmin && existing.CreatedByID != id.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	ok, err := h.Categories.Exists(ctx, req.CategoryID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
	}

	existing.Destination = strings.TrimSpace(req.Destination)
	existing.Description = req.Description
	existing.Price = req.Price
	existing.NumberOfNights = req.NumberOfNights
	if req.Capacity != nil {
		existing.Capacity = *req.Capacity
	}
	existing.StartDate = start
	existing.EndDate = end
	existing.CategoryID = req.CategoryID
	if req.Image != nil {
		existing.Image = req.Image
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	if err := h.Packages.Update(ctx, &existing); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update package failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": existing.ID})
}

// DeletePackage handles DELETE /v1/agent/packages/:id. A package with
// reservations cannot be deleted.
func (h *PackageHandler) DeletePackage(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pkgID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	ctx := c.Request().Context()
	existing, err := h.Packages.GetByID(ctx, pkgID)
	if err != nil {
		return domainError(c, err)
	}
	if id.Role != model.RoleAdmin && existing.CreatedByID != id.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Packages.Delete(ctx, pkgID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "package has reservations"})
		}
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": pkgID})
}

// ListOwnPackages handles GET /v1/agent/packages and returns the
// caller's packages (active or not) for the dashboard.
func (h *PackageHandler) ListOwnPackages(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	out, err := h.Packages.ListByCreator(c.Request().Context(), id.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type pkgResp struct {
		ID             uint64  `json:"id"`
		Destination    string  `json:"destination"`
		Price          float64 `json:"price"`
		NumberOfNights uint32  `json:"number_of_nights"`
		Capacity       uint32  `json:"capacity"`
		StartDate      string  `json:"start_date"`
		EndDate        string  `json:"end_date"`
		CategoryID     uint64  `json:"category_id"`
		IsActive       bool    `json:"is_active"`
	}
	resp := make([]pkgResp, 0, len(out))
	for _, p := range out {
		resp = append(resp, pkgResp{
			ID:             p.ID,
			Destination:    p.Destination,
			Price:          p.Price,
			NumberOfNights: p.NumberOfNights,
			Capacity:       p.Capacity,
			StartDate:      p.StartDate.UTC().Format("2006-01-02"),
			EndDate:        p.EndDate.UTC().Format("2006-01-02"),
			CategoryID:     p.CategoryID,
			IsActive:       p.IsActive,
		})
	}
	return c.JSON(http.StatusOK, resp)
}
