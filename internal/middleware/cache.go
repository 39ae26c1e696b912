package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/tour-agency-booking/internal/config"
)

// CatalogCache caches the public catalog responses (packages,
// categories, discounts) in Redis. Entries are keyed by a catalog
// generation counter: staff writes and reservation changes bump the
// generation, so stale entries stop being addressed immediately and
// age out through the TTL. With caching disabled or no Redis client
// every method degrades to a no-op.
type CatalogCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

// NewCatalogCache builds a CatalogCache. rdb may be nil.
func NewCatalogCache(cfg config.CacheConfig, rdb *redis.Client) *CatalogCache {
	return &CatalogCache{cfg: cfg, rdb: rdb}
}

func (cc *CatalogCache) disabled() bool { return !cc.cfg.Enabled || cc.rdb == nil }

func (cc *CatalogCache) genKey() string { return cc.cfg.Prefix + ":gen" }

// generation reads the current catalog generation. A missing counter
// (fresh Redis, or one that expired) reads as generation zero.
func (cc *CatalogCache) generation(ctx context.Context) string {
	v, err := cc.rdb.Get(ctx, cc.genKey()).Result()
	if err != nil {
		return "0"
	}
	return v
}

// Invalidate bumps the catalog generation so every cached catalog
// response is bypassed from now on. Errors are ignored: a failed bump
// only extends staleness until the TTL clears it.
func (cc *CatalogCache) Invalidate(ctx context.Context) {
	if cc.disabled() {
		return
	}
	_ = cc.rdb.Incr(ctx, cc.genKey()).Err()
}

// catalogKey derives the storage key for one request under one catalog
// generation.
func catalogKey(prefix, gen, method, route, query string) string {
	sum := sha1.Sum([]byte(method + " " + route + "?" + query))
	return fmt.Sprintf("%s:g%s:%x", prefix, gen, sum)
}

// shouldInvalidate reports whether a finished request must bump the
// catalog generation: any successful mutating method qualifies.
func shouldInvalidate(method string, status int) bool {
	if method == http.MethodGet || method == http.MethodHead {
		return false
	}
	return status >= 200 && status < 300
}

// Middleware serves GET responses from the cache and stores successful
// misses. Headers and body are replayed verbatim so a HIT is
// indistinguishable from the original response apart from the X-Cache
// header.
func (cc *CatalogCache) Middleware() echo.MiddlewareFunc {
	if cc.disabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}
	ttl := cc.cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	maxBody := int64(cc.cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			ctx := c.Request().Context()
			gen := cc.generation(ctx)
			key := catalogKey(cc.cfg.Prefix, gen, c.Request().Method, c.Path(), c.Request().URL.RawQuery)

			if bs, err := cc.rdb.Get(ctx, key).Bytes(); err == nil && len(bs) >= 8 {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK {
				hdr := make(http.Header, len(c.Response().Header()))
				for k, vals := range c.Response().Header() {
					vv := make([]string, len(vals))
					copy(vv, vals)
					hdr[k] = vv
				}
				body := cw.buf.Bytes()
				if maxBody > 0 && int64(len(body)) > maxBody {
					body = body[:maxBody]
				}
				if payload, err := encodePayload(cw.status, hdr, body); err == nil {
					_ = cc.rdb.SetEx(context.Background(), key, payload, ttl).Err()
				}
			}
			return nil
		}
	}
}

// InvalidateOnWrite returns middleware for the staff and client route
// groups. Successful mutating requests bump the catalog generation,
// since package capacity, discounts and categories all surface in the
// public browse payloads.
func (cc *CatalogCache) InvalidateOnWrite() echo.MiddlewareFunc {
	if cc.disabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			if shouldInvalidate(c.Request().Method, c.Response().Status) {
				cc.Invalidate(c.Request().Context())
			}
			return nil
		}
	}
}

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size < cw.limit {
		remain := cw.limit - cw.size
		if cw.limit <= 0 {
			cw.buf.Write(b)
		} else if remain > 0 {
			if int64(len(b)) <= remain {
				cw.buf.Write(b)
			} else {
				cw.buf.Write(b[:remain])
			}
		}
		cw.size += int64(len(b))
	}
	return cw.ResponseWriter.Write(b)
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	total := 4 + 4 + len(hdrJSON) + len(body)
	out := make([]byte, total)
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if 8+hlen > len(bs) || hlen < 0 {
		return 0, nil, nil, false
	}
	var hdr http.Header
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	} else {
		hdr = make(http.Header)
	}
	body = bs[8+hlen:]
	return status, hdr, body, true
}
