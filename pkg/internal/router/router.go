// Package router 管理路由配置，只负责把路径、中间件和处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/relayvault/pkg/internal/handle"
	"github.com/yeisme/relayvault/pkg/internal/service"
	"github.com/yeisme/relayvault/pkg/middleware"
)

// MediaGroupPath 批量上传接口，相对 /api/v1.
const MediaGroupPath = "/relay/media-group"

// RegisterRelayRoutes 注册批量上传路由.
//
//	POST    /relay/media-group -> UploadMediaGroup
//	OPTIONS /relay/media-group -> MediaGroupOptions
func RegisterRelayRoutes(g *gin.RouterGroup, checker middleware.PermissionChecker) {
	relayRoutes := g.Group("", middleware.RequirePermission(checker, service.PermissionUpload))
	{
		relayRoutes.POST(MediaGroupPath, handle.UploadMediaGroup)
		relayRoutes.OPTIONS(MediaGroupPath, handle.MediaGroupOptions)
	}
}
