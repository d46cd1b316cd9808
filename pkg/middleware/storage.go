package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/relayvault/pkg/context"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/relay"
	"github.com/yeisme/relayvault/pkg/internal/storage"
)

// StorageMiddleware 注入存储管理器.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// IngestMiddleware 注入批量上传流程和上游客户端，handler 通过 pkg/context 取用.
func IngestMiddleware(o *ingest.Orchestrator, rc *relay.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithOrchestrator(c.Request.Context(), o)
		ctx = context.WithRelayClient(ctx, rc)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
