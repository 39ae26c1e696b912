package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/tour-agency-booking/internal/model"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func testRules() []Rule {
	return []Rule{
		{Prefix: "/v1", Roles: []model.Role{model.RoleAdmin, model.RoleAgent, model.RoleClient}},
		{Prefix: "/v1/admin", Roles: []model.Role{model.RoleAdmin}},
		{Prefix: "/v1/agent", Roles: []model.Role{model.RoleAdmin, model.RoleAgent}},
		{Prefix: "/v1/client", Roles: []model.Role{model.RoleClient}},
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	g := NewGuard(testSecret, testRules())
	raw := signToken(t, testSecret, jwt.MapClaims{
		"sub":  42,
		"role": "AGENT",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	id, err := g.Authenticate("Bearer " + raw)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.UserID != 42 || id.Role != model.RoleAgent {
		t.Fatalf("identity = %+v, want {42 AGENT}", id)
	}
}

func TestAuthenticateWithoutBearerPrefix(t *testing.T) {
	g := NewGuard(testSecret, testRules())
	raw := signToken(t, testSecret, jwt.MapClaims{
		"sub":  7,
		"role": "CLIENT",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	if _, err := g.Authenticate(raw); err != nil {
		t.Fatalf("bare token should be accepted, got %v", err)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	g := NewGuard(testSecret, testRules())
	future := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name   string
		bearer string
	}{
		{"empty header", ""},
		{"bearer without token", "Bearer "},
		{"garbage", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", jwt.MapClaims{"sub": 1, "role": "ADMIN", "exp": future})},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": 1, "role": "ADMIN", "exp": time.Now().Add(-time.Minute).Unix()})},
		{"missing sub", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": "ADMIN", "exp": future})},
		{"missing role", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": 1, "exp": future})},
		{"unknown role", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": 1, "role": "SUPERUSER", "exp": future})},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := g.Authenticate(c.bearer); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("want ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestAuthenticateStringSubject(t *testing.T) {
	g := NewGuard(testSecret, testRules())
	raw := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "314",
		"role": "CLIENT",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	id, err := g.Authenticate("Bearer " + raw)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.UserID != 314 {
		t.Fatalf("user id = %d, want 314", id.UserID)
	}
}

func TestAuthorizeLongestPrefixWins(t *testing.T) {
	g := NewGuard(testSecret, testRules())

	cases := []struct {
		path string
		role model.Role
		ok   bool
	}{
		// /v1/admin is admin-only even though /v1 admits everyone.
		{"/v1/admin/users", model.RoleAdmin, true},
		{"/v1/admin/users", model.RoleAgent, false},
		{"/v1/admin/users", model.RoleClient, false},

		{"/v1/agent/packages", model.RoleAdmin, true},
		{"/v1/agent/packages", model.RoleAgent, true},
		{"/v1/agent/packages", model.RoleClient, false},

		{"/v1/client/reservations", model.RoleClient, true},
		{"/v1/client/reservations", model.RoleAgent, false},
		{"/v1/client/reservations", model.RoleAdmin, false},

		// Catch-all /v1 admits any authenticated caller.
		{"/v1/me", model.RoleAdmin, true},
		{"/v1/me", model.RoleAgent, true},
		{"/v1/me", model.RoleClient, true},
	}
	for _, c := range cases {
		err := g.Authorize(c.path, Identity{UserID: 1, Role: c.role})
		if c.ok && err != nil {
			t.Fatalf("%s as %s: want allow, got %v", c.path, c.role, err)
		}
		if !c.ok && !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s as %s: want ErrForbidden, got %v", c.path, c.role, err)
		}
	}
}

func TestAuthorizeUnlistedPathIsOpen(t *testing.T) {
	g := NewGuard(testSecret, testRules())
	if err := g.Authorize("/healthz", Identity{UserID: 1, Role: model.RoleClient}); err != nil {
		t.Fatalf("unlisted path: want allow, got %v", err)
	}
}

func TestCheckOwner(t *testing.T) {
	g := NewGuard(testSecret, nil)

	if err := g.CheckOwner(Identity{UserID: 1, Role: model.RoleAdmin}, 99); err != nil {
		t.Fatalf("admin owns everything, got %v", err)
	}
	if err := g.CheckOwner(Identity{UserID: 5, Role: model.RoleClient}, 5); err != nil {
		t.Fatalf("owner: want allow, got %v", err)
	}
	if err := g.CheckOwner(Identity{UserID: 5, Role: model.RoleClient}, 6); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner: want ErrForbidden, got %v", err)
	}
}
