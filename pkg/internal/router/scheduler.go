package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/relayvault/pkg/internal/handle"
	"github.com/yeisme/relayvault/pkg/internal/service"
	"github.com/yeisme/relayvault/pkg/middleware"
)

// RegisterSchedulerRoutes 注册调度器管理路由，需要 manage 权限.
func RegisterSchedulerRoutes(g *gin.RouterGroup, checker middleware.PermissionChecker) {
	s := g.Group("/scheduler", middleware.RequirePermission(checker, service.PermissionManage))

	s.GET("/jobs", handle.SchedulerJobs)

	s.POST("/jobs/stop", handle.SchedulerStopJobs)

	s.POST("/jobs/:name/run", handle.SchedulerRunJob)

	s.DELETE("/jobs/:id", handle.SchedulerRemoveJob)

	s.GET("/queue/waiting", handle.SchedulerQueueWaiting)
}
