package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-agency-booking/internal/config"
)

func TestCatalogKeyChangesWithGeneration(t *testing.T) {
	before := catalogKey("catalog", "3", http.MethodGet, "/v1/packages", "category=2")
	after := catalogKey("catalog", "4", http.MethodGet, "/v1/packages", "category=2")
	if before == after {
		t.Fatalf("bumping the generation must address a different key")
	}
	if again := catalogKey("catalog", "3", http.MethodGet, "/v1/packages", "category=2"); again != before {
		t.Fatalf("key derivation is not stable: %q vs %q", again, before)
	}
	if other := catalogKey("catalog", "3", http.MethodGet, "/v1/packages", "category=5"); other == before {
		t.Fatalf("different queries must not share a key")
	}
}

func TestShouldInvalidate(t *testing.T) {
	cases := []struct {
		method string
		status int
		want   bool
	}{
		{http.MethodGet, http.StatusOK, false},
		{http.MethodHead, http.StatusOK, false},
		{http.MethodPost, http.StatusCreated, true},
		{http.MethodPut, http.StatusOK, true},
		{http.MethodDelete, http.StatusOK, true},
		{http.MethodPost, http.StatusBadRequest, false},
		{http.MethodPut, http.StatusForbidden, false},
		{http.MethodDelete, http.StatusInternalServerError, false},
	}
	for _, c := range cases {
		if got := shouldInvalidate(c.method, c.status); got != c.want {
			t.Errorf("shouldInvalidate(%s, %d) = %v, want %v", c.method, c.status, got, c.want)
		}
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}, "X-Custom": {"a", "b"}}
	body := []byte(`[{"id":1}]`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(payload)
	if !ok {
		t.Fatalf("decode rejected its own encoding")
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if string(gotBody) != string(body) {
		t.Fatalf("body = %q, want %q", gotBody, body)
	}
	if got := gotHdr.Values("X-Custom"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("header values = %v, want [a b]", got)
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	if _, _, _, ok := decodePayload([]byte("short")); ok {
		t.Fatalf("truncated payload must not decode")
	}
	if _, _, _, ok := decodePayload([]byte{0, 0, 0, 200, 255, 255, 255, 255}); ok {
		t.Fatalf("payload with oversized header length must not decode")
	}
}

func TestCatalogCacheDisabledIsTransparent(t *testing.T) {
	cc := NewCatalogCache(config.CacheConfig{Enabled: false}, nil)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/v1/packages", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := cc.Middleware()(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if !called {
		t.Fatalf("disabled cache must pass the request through")
	}
	if got := rec.Header().Get("X-Cache"); got != "" {
		t.Fatalf("disabled cache must not mark responses, got X-Cache=%q", got)
	}

	// InvalidateOnWrite is equally inert without Redis.
	req = httptest.NewRequest(http.MethodDelete, "/v1/agent/packages/1", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	h = cc.InvalidateOnWrite()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("invalidate middleware: %v", err)
	}
}
