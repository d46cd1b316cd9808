package middleware

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/relayvault/pkg/cache"
	"github.com/yeisme/relayvault/pkg/log"
)

const (
	// ResponseCacheNamespace 响应缓存在 KV 中的键前缀.
	ResponseCacheNamespace = "manage@http_response@"

	DefaultCacheMaxBody = 1 << 20
	defaultCacheTTL     = 30 * time.Second
	headerCache         = "X-Cache"
	headerBypass        = "X-Cache-Bypass"
)

// CacheConfig 响应缓存配置.
type CacheConfig struct {
	Cache        *appcache.Cache
	TTL          time.Duration
	MaxBodyBytes int                     // 0 表示不限制
	VaryHeaders  []string                // 参与缓存键的请求头
	Skipper      func(*gin.Context) bool // 返回 true 跳过缓存
}

// DefaultCacheConfig 只缓存 200 的 GET/HEAD 响应，最大 1MiB.
func DefaultCacheConfig(c *appcache.Cache) CacheConfig {
	return CacheConfig{Cache: c, TTL: defaultCacheTTL, MaxBodyBytes: DefaultCacheMaxBody}
}

type cachedResponse struct {
	Status   int               `json:"s"`
	Header   map[string]string `json:"h,omitempty"`
	Body     []byte            `json:"b,omitempty"`
	ETag     string            `json:"e"`
	StoredAt int64             `json:"t"`
}

// CacheMiddleware 把只读接口的响应缓存在 KV 中.
// 命中时带 ETag 与 Age，If-None-Match 匹配返回 304；响应声明 no-store/private 时不缓存.
// 缓存读写失败不影响请求本身.
func CacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.Cache == nil {
		panic("CacheMiddleware: Cache cannot be nil")
	}

	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}

	vary := slices.Clone(cfg.VaryHeaders)
	slices.Sort(vary)

	return func(c *gin.Context) {
		if !cacheable(c, cfg) {
			c.Next()

			return
		}

		key := responseKey(c, vary)
		if serveCached(c, cfg.Cache, key) {
			return
		}

		c.Header(headerCache, "MISS")

		w := &captureWriter{ResponseWriter: c.Writer, limit: cfg.MaxBodyBytes}
		c.Writer = w
		c.Next()

		storeResponse(c, cfg, key, w)
	}
}

func cacheable(c *gin.Context, cfg CacheConfig) bool {
	if m := c.Request.Method; m != http.MethodGet && m != http.MethodHead {
		return false
	}

	if c.GetHeader(headerBypass) != "" {
		return false
	}

	return cfg.Skipper == nil || !cfg.Skipper(c)
}

// responseKey 方法、路径、排序后的 query 与 vary 头共同决定缓存键.
func responseKey(c *gin.Context, vary []string) string {
	var b strings.Builder

	b.WriteString(c.Request.Method)
	b.WriteByte(' ')
	b.WriteString(c.Request.URL.Path)

	q := c.Request.URL.Query()
	for _, k := range slices.Sorted(maps.Keys(q)) {
		b.WriteString("&" + k + "=" + strings.Join(q[k], ","))
	}

	for _, h := range vary {
		b.WriteString("|" + h + "=" + c.GetHeader(h))
	}

	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

func serveCached(c *gin.Context, cache *appcache.Cache, key string) bool {
	entry, err := appcache.Get[cachedResponse](c.Request.Context(), cache, key)
	if err != nil {
		if !appcache.IsMiss(err) {
			log.Ctx(c.Request.Context()).Debug().Err(err).Msg("response cache read failed")
		}

		return false
	}

	h := c.Writer.Header()
	for k, v := range entry.Header {
		h.Set(k, v)
	}

	h.Set("ETag", entry.ETag)
	h.Set("Age", strconv.FormatInt(int64(time.Since(time.Unix(0, entry.StoredAt)).Seconds()), 10))
	h.Set(headerCache, "HIT")

	switch {
	case c.GetHeader("If-None-Match") == entry.ETag:
		c.AbortWithStatus(http.StatusNotModified)
	case c.Request.Method == http.MethodHead:
		c.AbortWithStatus(entry.Status)
	default:
		c.Status(entry.Status)
		_, _ = c.Writer.Write(entry.Body)
		c.Abort()
	}

	return true
}

func storeResponse(c *gin.Context, cfg CacheConfig, key string, w *captureWriter) {
	if c.Writer.Status() != http.StatusOK || w.truncated {
		return
	}

	cc := strings.ToLower(c.Writer.Header().Get("Cache-Control"))
	if strings.Contains(cc, "no-store") || strings.Contains(cc, "private") {
		return
	}

	hdr := make(map[string]string, len(c.Writer.Header()))
	for k, v := range c.Writer.Header() {
		if len(v) > 0 && k != headerCache && k != "Content-Length" {
			hdr[k] = v[0]
		}
	}

	body := bytes.Clone(w.buf.Bytes())
	entry := cachedResponse{
		Status:   http.StatusOK,
		Header:   hdr,
		Body:     body,
		ETag:     fmt.Sprintf("%q", strconv.FormatUint(xxhash.Sum64(body), 16)),
		StoredAt: time.Now().UnixNano(),
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		if err := appcache.Set(ctx, cfg.Cache, key, entry, cfg.TTL); err != nil {
			log.Ctx(ctx).Debug().Err(err).Msg("response cache write failed")
		}
	}()
}

// captureWriter 在写出响应的同时保留一份副本，超过上限后放弃缓存.
type captureWriter struct {
	gin.ResponseWriter

	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.truncated {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.truncated = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}
