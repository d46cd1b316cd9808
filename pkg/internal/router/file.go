package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/relayvault/pkg/cache"
	"github.com/yeisme/relayvault/pkg/internal/handle"
	"github.com/yeisme/relayvault/pkg/internal/service"
	"github.com/yeisme/relayvault/pkg/internal/storage/kv"
	"github.com/yeisme/relayvault/pkg/middleware"
)

// RegisterFileRoutes 注册文件读取路由.
// 文件内容挂在根路径 /file/*id 下，与记录中的 storagePath 一致；元数据查询走响应缓存，
// 目录列表随写入变化，不缓存.
func RegisterFileRoutes(root *gin.Engine, g *gin.RouterGroup, checker middleware.PermissionChecker, store kv.KVStore) {
	root.GET("/file/*id", handle.ServeFile)

	metaRoutes := g.Group("/files/meta",
		middleware.RequirePermission(checker, service.PermissionRead),
		gzip.Gzip(gzip.DefaultCompression),
	)

	if store != nil {
		cfg := middleware.DefaultCacheConfig(cache.New(store, middleware.ResponseCacheNamespace))
		// gzip 在缓存之前，压缩与否必须进入缓存键
		cfg.VaryHeaders = []string{"Accept-Encoding"}

		metaRoutes.Use(middleware.CacheMiddleware(cfg))
	}

	metaRoutes.GET("/*id", handle.FileMeta)

	g.GET("/files/list",
		middleware.RequirePermission(checker, service.PermissionRead),
		gzip.Gzip(gzip.DefaultCompression),
		handle.ListFiles,
	)
}
