package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/relayvault/pkg/cache"
	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/storage/kv"
	"github.com/yeisme/relayvault/pkg/internal/types"
	"github.com/yeisme/relayvault/pkg/log"
	"github.com/yeisme/relayvault/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(e *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()

	var out types.ErrorResponse
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

func TestRequestIDMiddleware(t *testing.T) {
	e := gin.New()
	e.Use(middleware.RequestIDMiddleware())
	e.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, log.RequestID(c.Request.Context()))
	})

	t.Run("generated", func(t *testing.T) {
		w := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))

		id := w.Header().Get(middleware.HeaderRequestID)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.HeaderRequestID, "abc-123")

		w := serve(e, req)
		assert.Equal(t, "abc-123", w.Header().Get(middleware.HeaderRequestID))
		assert.Equal(t, "abc-123", w.Body.String())
	})

	t.Run("oversized replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.HeaderRequestID, strings.Repeat("x", 200))

		w := serve(e, req)
		assert.Len(t, w.Header().Get(middleware.HeaderRequestID), 36)
	})
}

type checkerFunc func(r *http.Request, permission string) bool

func (f checkerFunc) Check(r *http.Request, permission string) bool { return f(r, permission) }

func TestRequirePermission(t *testing.T) {
	var asked string

	checker := checkerFunc(func(r *http.Request, permission string) bool {
		asked = permission

		return r.Header.Get("authCode") == "ok"
	})

	e := gin.New()
	e.Use(middleware.RequirePermission(checker, "upload"))
	e.Any("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(e, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "upload", asked)
	assert.Equal(t, string(ingest.CodeAuth), decodeError(t, w).Code)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("authCode", "ok")
	assert.Equal(t, http.StatusNoContent, serve(e, req).Code)

	// 预检不带凭据
	assert.Equal(t, http.StatusNoContent, serve(e, httptest.NewRequest(http.MethodOptions, "/", nil)).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		e := gin.New()
		e.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 1}))
		e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		for range 3 {
			assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
		}
	})

	t.Run("per header key", func(t *testing.T) {
		e := gin.New()
		e.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{
			Enabled: true, RPS: 0.5, Burst: 1, Key: "header:X-Client",
		}))
		e.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := func(client string) *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("X-Client", client)

			return r
		}

		assert.Equal(t, http.StatusOK, serve(e, req("a")).Code)

		w := serve(e, req("a"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "2", w.Header().Get("Retry-After"))

		body := decodeError(t, w)
		assert.Equal(t, string(ingest.CodeRateLimit), body.Code)
		assert.Equal(t, 2, body.RetryAfterSeconds)

		// 其他客户端有独立的额度
		assert.Equal(t, http.StatusOK, serve(e, req("b")).Code)
	})
}

func newResponseCache(t *testing.T) *cache.Cache {
	t.Helper()

	mem, err := kv.NewMemoryKV(context.Background(), nil)
	require.NoError(t, err)

	return cache.New(mem, middleware.ResponseCacheNamespace)
}

func TestCacheMiddleware(t *testing.T) {
	var calls atomic.Int32

	e := gin.New()
	e.Use(middleware.CacheMiddleware(middleware.DefaultCacheConfig(newResponseCache(t))))
	e.GET("/meta", func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusOK, gin.H{"name": "cat.png"})
	})
	e.GET("/private", func(c *gin.Context) {
		calls.Add(1)
		c.Header("Cache-Control", "private")
		c.String(http.StatusOK, "secret")
	})
	e.GET("/missing", func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusNotFound)
	})

	get := func(path string, mod func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if mod != nil {
			mod(req)
		}

		return serve(e, req)
	}

	w := get("/meta", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	var hit *httptest.ResponseRecorder

	// 写缓存是异步的
	require.Eventually(t, func() bool {
		hit = get("/meta", nil)

		return hit.Header().Get("X-Cache") == "HIT"
	}, time.Second, 10*time.Millisecond)

	assert.JSONEq(t, `{"name":"cat.png"}`, hit.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", hit.Header().Get("Content-Type"))

	etag := hit.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = get("/meta", func(r *http.Request) { r.Header.Set("If-None-Match", etag) })
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	before := calls.Load()
	w = get("/meta", func(r *http.Request) { r.Header.Set("X-Cache-Bypass", "1") })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Equal(t, before+1, calls.Load())

	t.Run("not stored", func(t *testing.T) {
		for _, path := range []string{"/private", "/missing"} {
			get(path, nil)
			time.Sleep(20 * time.Millisecond)

			w := get(path, nil)
			assert.Equal(t, "MISS", w.Header().Get("X-Cache"), path)
		}
	})
}
