package middleware

import (
	"math"
	"net"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
)

// RateLimitMiddleware 基于配置的限流，超限时返回 429 RATE_LIMIT 并带 Retry-After.
// key: global | ip | header:<Name>，按键限流时闲置的 limiter 由 LRU 过期回收.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))
	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				rejectRate(c, cfg.RPS)

				return
			}

			c.Next()
		}
	}

	size := cfg.MaxKeys
	if size <= 0 {
		size = configs.DefaultRateLimitMaxKeys
	}

	limiters := expirable.NewLRU[string, *rate.Limiter](size, nil, cfg.IdleTTL())

	return func(c *gin.Context) {
		key := limitKey(c, keyMode)

		l, ok := limiters.Get(key)
		if !ok {
			l = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
			limiters.Add(key, l)
		}

		if !l.Allow() {
			rejectRate(c, cfg.RPS)

			return
		}

		c.Next()
	}
}

func limitKey(c *gin.Context, keyMode string) string {
	key := ""

	if h, ok := strings.CutPrefix(keyMode, "header:"); ok {
		key = c.GetHeader(h)
	}

	if key == "" {
		key = clientIP(c)
	}

	if key == "" {
		key = "unknown"
	}

	return key
}

// rejectRate Retry-After 取补充一个令牌所需的秒数，至少 1.
func rejectRate(c *gin.Context, rps float64) {
	wait := max(1, int(math.Ceil(1/rps)))

	c.Header("Retry-After", strconv.Itoa(wait))
	c.AbortWithStatusJSON(ingest.CodeRateLimit.Status(), rateLimitBody(wait))
}

func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}

	return c.Request.RemoteAddr
}
