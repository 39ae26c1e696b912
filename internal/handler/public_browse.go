package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/repository"
)

// PublicHandler exposes unauthenticated browse endpoints: active
// packages with their current discount applied, categories and the
// discount list. Responses are cacheable; the cache middleware is
// attached at routing time.
type PublicHandler struct {
	Packages   *repository.PackageRepo
	Categories *repository.CategoryRepo
	Discounts  *repository.DiscountRepo
}

// NewPublicHandler constructs a PublicHandler. All dependencies must
// be non-nil.
func NewPublicHandler(p *repository.PackageRepo, c *repository.CategoryRepo, d *repository.DiscountRepo) *PublicHandler {
	if p == nil || c == nil || d == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Packages: p, Categories: c, Discounts: d}
}

// ListPackages handles GET /v1/packages. Guests see only active
// packages; an optional ?category=<id> filters by category.
func (h *PublicHandler) ListPackages(c echo.Context) error {
	var categoryID uint64
	if raw := c.QueryParam("category"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category filter"})
		}
		categoryID = n
	}
	out, err := h.Packages.ListPublic(c.Request().Context(), categoryID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, out)
}

// GetPackage handles GET /v1/packages/:id.
func (h *PublicHandler) GetPackage(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
	}
	p, err := h.Packages.GetPublic(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrPackageNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, p)
}

// ListCategories handles GET /v1/categories.
func (h *PublicHandler) ListCategories(c echo.Context) error {
	cats, err := h.Categories.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type categoryResp struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}
	out := make([]categoryResp, 0, len(cats))
	for _, cat := range cats {
		out = append(out, categoryResp{ID: cat.ID, Name: cat.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// ListDiscounts handles GET /v1/discounts. The full discount list is
// public; clients use it to spot running promotions. ?active=true
// restricts to discounts whose window contains the current time.
func (h *PublicHandler) ListDiscounts(c echo.Context) error {
	out, err := h.Discounts.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if c.QueryParam("active") == "true" {
		now := time.Now().UTC().Format("2006-01-02")
		filtered := out[:0]
		for _, d := range out {
			if d.StartDate <= now && now <= d.EndDate {
				filtered = append(filtered, d)
			}
		}
		out = filtered
	}
	return c.JSON(http.StatusOK, out)
}
