// Package handle 提供 HTTP 请求处理器，业务逻辑在 ingest 与 service 中.
package handle

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/types"
)

// writeError 按错误码写出统一错误结构，RATE_LIMIT 附带 Retry-After.
func writeError(c *gin.Context, e *ingest.Error) {
	resp := types.NewErrorResponse(e)
	if resp.RetryAfterSeconds > 0 {
		c.Header("Retry-After", strconv.Itoa(resp.RetryAfterSeconds))
	}

	status := e.Status
	if status == 0 {
		status = e.Code.Status()
	}

	_ = c.Error(e)
	c.JSON(status, resp)
}
