package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const corsMaxAge = 12 * time.Hour

// CORSMiddleware 允许浏览器跨域直传. 带 Origin 的预检在这里以 200 结束，
// 不带 Origin 的 OPTIONS 交给路由处理器.
func CORSMiddleware() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	config.AllowHeaders = []string{
		"Origin", "Content-Type", "Authorization", "authCode", HeaderRequestID,
	}
	config.ExposeHeaders = []string{"Retry-After", HeaderRequestID, "X-Cache"}
	config.OptionsResponseStatusCode = http.StatusOK
	config.MaxAge = corsMaxAge

	return cors.New(config)
}
