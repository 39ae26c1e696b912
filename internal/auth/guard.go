package auth

import (
	"errors"
	"sort"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/tour-agency-booking/internal/model"
)

// ErrUnauthenticated is returned when no credential is present or the
// credential fails signature or expiry verification. Handlers should
// translate this into an HTTP 401 response.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden is returned when an authenticated caller's role is not
// permitted for a route, or an ownership predicate fails. Handlers
// should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// Identity is the authenticated caller extracted from a verified
// access token.
type Identity struct {
	UserID uint64
	Role   model.Role
}

// Rule maps a route prefix to the set of roles allowed under it.
type Rule struct {
	Prefix string
	Roles  []model.Role
}

// Guard resolves a caller's identity from a bearer token and enforces
// role and ownership predicates. It holds an immutable, ordered rule
// list; the longest matching prefix decides which roles are allowed.
// The guard performs pure checks and never mutates any entity.
type Guard struct {
	secret []byte
	rules  []Rule
}

// NewGuard builds a Guard from the JWT signing secret and a permission
// table. The rules are copied and ordered by descending prefix length
// so that lookups take the most specific match first.
func NewGuard(secret string, rules []Rule) *Guard {
	rs := make([]Rule, len(rules))
	copy(rs, rules)
	sort.SliceStable(rs, func(i, j int) bool {
		return len(rs[i].Prefix) > len(rs[j].Prefix)
	})
	return &Guard{secret: []byte(secret), rules: rs}
}

// Authenticate verifies a bearer credential and returns the identity
// encoded in it. The header value may carry the "Bearer " prefix.
// Missing, malformed, expired or badly signed tokens all yield
// ErrUnauthenticated.
func (g *Guard) Authenticate(bearer string) (Identity, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(bearer), "Bearer"))
	if raw == "" {
		return Identity{}, ErrUnauthenticated
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthenticated
		}
		return g.secret, nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrUnauthenticated
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	id, ok := claimUserID(claims["sub"])
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	role, ok := claims["role"].(string)
	if !ok || !model.ValidRole(role) {
		return Identity{}, ErrUnauthenticated
	}
	return Identity{UserID: id, Role: model.Role(role)}, nil
}

// Authorize checks the caller's role against the permission table for
// the given request path. The first rule whose prefix matches the path
// wins (rules are ordered longest-prefix-first). A path matching no
// rule is open to any authenticated caller.
func (g *Guard) Authorize(path string, id Identity) error {
	for _, r := range g.rules {
		if !strings.HasPrefix(path, r.Prefix) {
			continue
		}
		for _, role := range r.Roles {
			if role == id.Role {
				return nil
			}
		}
		return ErrForbidden
	}
	return nil
}

// CheckOwner enforces an ownership predicate: admins own everything,
// every other role only the resources recorded against their user ID.
func (g *Guard) CheckOwner(id Identity, ownerID uint64) error {
	if id.Role == model.RoleAdmin {
		return nil
	}
	if id.UserID == ownerID {
		return nil
	}
	return ErrForbidden
}

// claimUserID converts the "sub" claim into a user ID. Tokens issued
// by this service carry the ID as a JSON number, which decodes as
// float64; string form is accepted for robustness.
func claimUserID(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0, false
		}
		return uint64(t), true
	case string:
		var n uint64
		for i := 0; i < len(t); i++ {
			c := t[i]
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + uint64(c-'0')
		}
		return n, t != ""
	}
	return 0, false
}
