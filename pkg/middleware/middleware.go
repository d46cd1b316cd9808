// Package middleware 提供 HTTP 中间件：请求 ID、日志、指标、追踪、鉴权、限流、熔断与响应缓存.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/types"
	"github.com/yeisme/relayvault/pkg/log"
)

// HeaderRequestID 请求 ID 头，客户端传入时沿用.
const HeaderRequestID = "X-Request-Id"

const maxRequestIDLen = 128

// RequestIDMiddleware 为每个请求分配 ID，写入响应头并放入 request context.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// abortWith 以统一错误结构中止请求.
func abortWith(c *gin.Context, code ingest.Code, msg string) {
	c.AbortWithStatusJSON(code.Status(), types.ErrorOf(code, msg))
}

func rateLimitBody(retryAfter int) types.ErrorResponse {
	body := types.ErrorOf(ingest.CodeRateLimit, "Too many requests, please retry later")
	body.RetryAfterSeconds = retryAfter

	return body
}
