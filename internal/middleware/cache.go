// Package middleware provides the HTTP cross-cutting pieces: JWT
// authentication, role checks, the Redis response cache wrapped around
// the dashboard, and the Redis token-bucket rate limiter.
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/visitor-management/internal/config"
)

// cachedResponse is the stored form of a response. Body is raw bytes;
// encoding/json base64-encodes it on the way to Redis.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// bodyRecorder tees the response body into a buffer up to a size cap so
// oversized responses are served but never cached.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	written  int64
	maxBytes int64
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.written += int64(len(b))
	if r.maxBytes <= 0 || r.written <= r.maxBytes {
		r.buf.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) cacheable() bool {
	return r.status == http.StatusOK && (r.maxBytes <= 0 || r.written <= r.maxBytes)
}

func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	req := c.Request()
	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = append(parts, c.Path())
	case "method_route":
		parts = append(parts, req.Method, c.Path())
	case "method_route_query":
		parts = append(parts, req.Method, c.Path(), req.URL.RawQuery)
	default: // route_query
		parts = append(parts, c.Path(), req.URL.RawQuery)
	}
	return strings.Join(parts, ":")
}

func serveCached(c echo.Context, entry cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range entry.Header {
		if strings.EqualFold(k, "Content-Length") {
			continue
		}
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(entry.Status)
	_, err := c.Response().Write(entry.Body)
	return err
}

// NewRedisCache caches whole 200 responses (status, headers and body)
// in Redis so repeated dashboard reads skip the aggregate queries. With
// caching disabled, or no Redis client, requests pass straight through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			key := cacheKey(cfg, c)
			if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				var entry cachedResponse
				if json.Unmarshal(raw, &entry) == nil {
					return serveCached(c, entry)
				}
			}

			rec := &bodyRecorder{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				maxBytes:       int64(cfg.MaxBodyBytes),
			}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if rec.cacheable() {
				entry := cachedResponse{
					Status: rec.status,
					Header: c.Response().Header().Clone(),
					Body:   rec.buf.Bytes(),
				}
				if raw, err := json.Marshal(entry); err == nil {
					// The request context may already be done; store anyway.
					_ = rdb.SetEx(context.Background(), key, raw, ttl).Err()
				}
			}
			return nil
		}
	}
}
