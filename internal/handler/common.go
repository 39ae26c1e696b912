package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/auth"
	"github.com/iliyamo/tour-agency-booking/internal/ledger"
	"github.com/iliyamo/tour-agency-booking/internal/middleware"
	"github.com/iliyamo/tour-agency-booking/internal/repository"
)

// identity extracts the authenticated identity placed in the context
// by the Authenticate middleware.
func identity(c echo.Context) (auth.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, errors.New("no identity in context")
	}
	return id, nil
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// domainError translates ledger/auth/repository sentinel errors into
// HTTP responses. Unknown errors become 500 without leaking details.
func domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, repository.ErrPackageNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrDiscountNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, auth.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, ledger.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not enough free capacity"})
	case errors.Is(err, ledger.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid status transition"})
	case errors.Is(err, ledger.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting state"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
