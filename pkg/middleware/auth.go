package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/relayvault/pkg/internal/ingest"
)

// PermissionChecker 判断请求是否具备某项权限.
type PermissionChecker interface {
	Check(r *http.Request, permission string) bool
}

// RequirePermission 未通过校验时返回 401 AUTH_ERROR. OPTIONS 预检不校验.
func RequirePermission(checker PermissionChecker, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || checker.Check(c.Request, permission) {
			c.Next()

			return
		}

		abortWith(c, ingest.CodeAuth, ingest.ErrUnauthorized.Message)
	}
}
