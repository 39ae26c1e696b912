package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/auth"
	"github.com/iliyamo/tour-agency-booking/internal/model"
)

type fakeDirectory struct {
	users        map[uint64]model.User
	reservations uint64
	packages     uint64
	deleted      []uint64
	deactivated  []uint64
}

func (f *fakeDirectory) List(ctx context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeDirectory) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, errNotFoundTest
	}
	return u, nil
}

func (f *fakeDirectory) CountOwnedResources(ctx context.Context, id uint64) (uint64, uint64, error) {
	return f.reservations, f.packages, nil
}

func (f *fakeDirectory) UpdateRoleActive(ctx context.Context, id uint64, role *model.Role, isActive *bool) error {
	u := f.users[id]
	if role != nil {
		u.Role = *role
	}
	if isActive != nil {
		u.IsActive = *isActive
		if !*isActive {
			f.deactivated = append(f.deactivated, id)
		}
	}
	f.users[id] = u
	return nil
}

func (f *fakeDirectory) Delete(ctx context.Context, id uint64) error {
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRevoker struct {
	revoked []uint64
}

func (f *fakeRevoker) RevokeAllForUser(ctx context.Context, userID uint64) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

var errNotFoundTest = echo.NewHTTPError(http.StatusNotFound)

func adminContext(t *testing.T, method, target, body, paramID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/admin/users/:id")
	c.SetParamNames("id")
	c.SetParamValues(paramID)
	c.Set("identity", auth.Identity{UserID: 1, Role: model.RoleAdmin})
	return c, rec
}

func seededHandler() (*UserAdminHandler, *fakeDirectory, *fakeRevoker) {
	dir := &fakeDirectory{users: map[uint64]model.User{
		1: {ID: 1, Email: "admin@agency.test", Role: model.RoleAdmin, IsActive: true},
		2: {ID: 2, Email: "client@agency.test", Role: model.RoleClient, IsActive: true},
	}}
	rev := &fakeRevoker{}
	return NewUserAdminHandler(dir, rev), dir, rev
}

func TestUpdateUserDeactivationRevokesSessions(t *testing.T) {
	h, dir, rev := seededHandler()
	c, rec := adminContext(t, http.MethodPut, "/v1/admin/users/2", `{"is_active":false}`, "2")

	if err := h.UpdateUser(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
	if len(dir.deactivated) != 1 || dir.deactivated[0] != 2 {
		t.Fatalf("deactivated = %v, want [2]", dir.deactivated)
	}
	if len(rev.revoked) != 1 || rev.revoked[0] != 2 {
		t.Fatalf("revoked = %v, want [2]", rev.revoked)
	}
}

func TestUpdateUserDeactivationBlockedByOwnedResources(t *testing.T) {
	h, dir, rev := seededHandler()
	dir.reservations = 3
	c, rec := adminContext(t, http.MethodPut, "/v1/admin/users/2", `{"is_active":false}`, "2")

	if err := h.UpdateUser(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if len(dir.deactivated) != 0 {
		t.Fatalf("user was deactivated despite owned resources")
	}
	if len(rev.revoked) != 0 {
		t.Fatalf("sessions revoked despite blocked deactivation")
	}
}

func TestUpdateUserRoleChangeKeepsSessions(t *testing.T) {
	h, dir, rev := seededHandler()
	c, rec := adminContext(t, http.MethodPut, "/v1/admin/users/2", `{"role":"agent"}`, "2")

	if err := h.UpdateUser(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
	if got := dir.users[2].Role; got != model.RoleAgent {
		t.Fatalf("role = %s, want AGENT", got)
	}
	if len(rev.revoked) != 0 {
		t.Fatalf("role change must not revoke sessions, revoked %v", rev.revoked)
	}
}

func TestUpdateUserRejectsSelfAndUnknownRole(t *testing.T) {
	h, _, _ := seededHandler()

	c, rec := adminContext(t, http.MethodPut, "/v1/admin/users/1", `{"is_active":false}`, "1")
	if err := h.UpdateUser(c); err != nil {
		t.Fatalf("update self: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self edit: status = %d, want 400", rec.Code)
	}

	c, rec = adminContext(t, http.MethodPut, "/v1/admin/users/2", `{"role":"SUPERUSER"}`, "2")
	if err := h.UpdateUser(c); err != nil {
		t.Fatalf("update role: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown role: status = %d, want 400", rec.Code)
	}
}

func TestDeleteUserRevokesSessionsFirst(t *testing.T) {
	h, dir, rev := seededHandler()
	c, rec := adminContext(t, http.MethodDelete, "/v1/admin/users/2", "", "2")

	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
	if len(rev.revoked) != 1 || rev.revoked[0] != 2 {
		t.Fatalf("revoked = %v, want [2]", rev.revoked)
	}
	if len(dir.deleted) != 1 || dir.deleted[0] != 2 {
		t.Fatalf("deleted = %v, want [2]", dir.deleted)
	}
}

func TestDeleteUserGuards(t *testing.T) {
	h, dir, rev := seededHandler()

	c, rec := adminContext(t, http.MethodDelete, "/v1/admin/users/1", "", "1")
	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("delete self: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self delete: status = %d, want 400", rec.Code)
	}

	dir.packages = 1
	c, rec = adminContext(t, http.MethodDelete, "/v1/admin/users/2", "", "2")
	if err := h.DeleteUser(c); err != nil {
		t.Fatalf("delete owner: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("owner delete: status = %d, want 409", rec.Code)
	}
	if len(rev.revoked) != 0 || len(dir.deleted) != 0 {
		t.Fatalf("blocked delete must not revoke or delete (revoked=%v deleted=%v)", rev.revoked, dir.deleted)
	}
}
