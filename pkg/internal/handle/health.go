package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/relayvault/pkg/context"
	"github.com/yeisme/relayvault/pkg/internal/types"
)

const (
	timeout = 2 * time.Second

	// healthProbeKey 不存在的保留键，只用来确认后端可达.
	healthProbeKey = "manage@health@probe"
)

func unhealthy(c *gin.Context, component, typ, msg string) {
	c.JSON(http.StatusServiceUnavailable, types.HealthResponse{
		Component: component,
		Status:    "unhealthy",
		Type:      typ,
		Error:     msg,
	})
}

// HealthKV 元数据存储健康检查.
//
//	@Summary	KV 健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/health/kv [get]
func HealthKV(c *gin.Context) {
	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil || kvc.KVStore == nil {
		unhealthy(c, "kv", "", "kv client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if _, err := kvc.Exists(ctx, healthProbeKey); err != nil {
		unhealthy(c, "kv", string(kvc.Type), err.Error())
		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Component: "kv", Status: "ok", Type: string(kvc.Type)})
}

// HealthMQ 事件总线健康检查. 事件未启用时同样返回 503.
//
//	@Summary	MQ 健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/health/mq [get]
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil {
		unhealthy(c, "mq", "", "mq client not initialized")
		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Component: "mq", Status: "ok", Type: string(mqc.Type())})
}
