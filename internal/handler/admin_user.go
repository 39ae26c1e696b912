package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/model"
)

// userDirectory is the slice of the user repository the admin handler
// needs.
type userDirectory interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	CountOwnedResources(ctx context.Context, id uint64) (reservations, packages uint64, err error)
	UpdateRoleActive(ctx context.Context, id uint64, role *model.Role, isActive *bool) error
	Delete(ctx context.Context, id uint64) error
}

// sessionRevoker invalidates every refresh token of a user, so a
// deactivated or deleted account cannot mint new access tokens.
type sessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// UserAdminHandler serves admin user management: listing, role and
// active-flag changes, deletion. A user who owns any reservation or
// package can be neither deleted nor deactivated, and admins cannot
// act on their own account.
type UserAdminHandler struct {
	Users  userDirectory
	Tokens sessionRevoker
}

// NewUserAdminHandler constructs a UserAdminHandler.
func NewUserAdminHandler(u userDirectory, t sessionRevoker) *UserAdminHandler {
	if u == nil || t == nil {
		panic("nil dependency passed to NewUserAdminHandler")
	}
	return &UserAdminHandler{Users: u, Tokens: t}
}

type userResp struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
}

// ListUsers handles GET /v1/admin/users.
func (h *UserAdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, userResp{
			ID: u.ID, FirstName: u.FirstName, LastName: u.LastName,
			Email: u.Email, Role: string(u.Role), IsActive: u.IsActive,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateUser handles PUT /v1/admin/users/:id. The body may carry a new
// role and/or an is_active flag. Deactivation additionally revokes the
// user's refresh tokens.
func (h *UserAdminHandler) UpdateUser(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if userID == id.UserID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot modify own account"})
	}
	var body struct {
		Role     *string `json:"role"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var role *model.Role
	if body.Role != nil {
		r := strings.ToUpper(strings.TrimSpace(*body.Role))
		if !model.ValidRole(r) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		}
		mr := model.Role(r)
		role = &mr
	}

	// Deactivation falls under the same referential guard as deletion.
	deactivating := body.IsActive != nil && !*body.IsActive
	if deactivating {
		reservations, packages, err := h.Users.CountOwnedResources(ctx, userID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if reservations > 0 || packages > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user has reservations or packages"})
		}
	}

	if err := h.Users.UpdateRoleActive(ctx, userID, role, body.IsActive); err != nil {
		return domainError(c, err)
	}
	if deactivating {
		if err := h.Tokens.RevokeAllForUser(ctx, userID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
		}
	}

	resp := userResp{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Role: string(u.Role), IsActive: u.IsActive}
	if role != nil {
		resp.Role = string(*role)
	}
	if body.IsActive != nil {
		resp.IsActive = *body.IsActive
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteUser handles DELETE /v1/admin/users/:id. The user's refresh
// tokens are revoked before the account row goes away.
func (h *UserAdminHandler) DeleteUser(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if userID == id.UserID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete own account"})
	}

	ctx := c.Request().Context()
	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	reservations, packages, err := h.Users.CountOwnedResources(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if reservations > 0 || packages > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "user has reservations or packages"})
	}
	if err := h.Tokens.RevokeAllForUser(ctx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke sessions failed"})
	}
	if err := h.Users.Delete(ctx, userID); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": userID})
}
