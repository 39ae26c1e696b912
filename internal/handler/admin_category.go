package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/repository"
)

// CategoryHandler serves admin category management. The public
// category listing lives on the public handler.
type CategoryHandler struct {
	Categories *repository.CategoryRepo
}

// NewCategoryHandler constructs a CategoryHandler.
func NewCategoryHandler(c *repository.CategoryRepo) *CategoryHandler {
	if c == nil {
		panic("nil repository passed to NewCategoryHandler")
	}
	return &CategoryHandler{Categories: c}
}

type categoryReq struct {
	Name string `json:"name"`
}

// CreateCategory handles POST /v1/admin/categories.
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	id, err := h.Categories.Create(c.Request().Context(), name)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create category failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "name": name})
}

// UpdateCategory handles PUT /v1/admin/categories/:id.
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	catID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := h.Categories.Rename(c.Request().Context(), catID, name); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category already exists"})
		}
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": catID, "name": name})
}

// DeleteCategory handles DELETE /v1/admin/categories/:id. Categories
// still referenced by packages cannot be removed.
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	catID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	if err := h.Categories.Delete(c.Request().Context(), catID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category has packages"})
		}
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": catID})
}
