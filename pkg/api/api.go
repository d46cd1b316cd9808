// Package api 汇总 HTTP 路由组，供 app 注册到 gin 引擎.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/relayvault/pkg/internal/router"
	"github.com/yeisme/relayvault/pkg/internal/service"
	"github.com/yeisme/relayvault/pkg/internal/storage/kv"
)

// BasePath 业务接口前缀.
const BasePath = "/api/v1"

// RegisterGroup 注册全部路由组到传入的 gin 引擎.
// store 用于只读接口的响应缓存，为 nil 时不启用缓存.
func RegisterGroup(e *gin.Engine, store kv.KVStore) *gin.Engine {
	checker := service.NewAuthChecker(nil)

	v1 := e.Group(BasePath)

	router.RegisterRelayRoutes(v1, checker)
	router.RegisterFileRoutes(e, v1, checker, store)
	router.RegisterHealthCheckRoute(v1)
	router.RegisterSchedulerRoutes(v1, checker)
	router.RegisterSwaggerRoute(e)

	return e
}
