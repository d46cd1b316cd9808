package handle

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/relayvault/pkg/configs"
	ctxPkg "github.com/yeisme/relayvault/pkg/context"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/types"
	"github.com/yeisme/relayvault/pkg/log"
)

// UploadMediaGroup 批量上传 2~10 个 base64 文件，作为一个媒体组中继到上游频道.
//
//	@Summary		批量上传媒体组
//	@Description	文件整体成功或整体失败；携带相同 requestId 重试时直接返回首次成功的响应
//	@Tags			中继上传
//	@Accept			json
//	@Produce		json
//	@Param			authCode	header		string					false	"上传口令"
//	@Param			body		body		types.MediaGroupRequest	true	"批量上传请求"
//	@Success		200			{object}	ingest.Result			"上传结果"
//	@Failure		400			{object}	types.ErrorResponse		"INVALID_REQUEST / CHANNEL_NOT_FOUND"
//	@Failure		401			{object}	types.ErrorResponse		"AUTH_ERROR"
//	@Failure		429			{object}	types.ErrorResponse		"RATE_LIMIT"
//	@Failure		502			{object}	types.ErrorResponse		"UPSTREAM_ERROR"
//	@Failure		500			{object}	types.ErrorResponse		"INTERNAL_ERROR"
//	@Router			/api/v1/relay/media-group [post]
func UploadMediaGroup(c *gin.Context) {
	ctx := c.Request.Context()

	orch := ctxPkg.GetOrchestrator(ctx)
	if orch == nil {
		log.Ctx(ctx).Error().Msg("ingest orchestrator not initialized")
		writeError(c, ingest.NewError(ingest.CodeInternal, "Service not ready"))

		return
	}

	limit := configs.GetConfig().Server.MaxBodyBytes()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, ingest.NewError(ingest.CodeInvalidRequest, "Request body too large"))

			return
		}

		writeError(c, ingest.NewError(ingest.CodeInvalidRequest, "Failed to read request body"))

		return
	}

	res, err := orch.Submit(ctx, ingest.Submission{Body: body, ClientIP: c.ClientIP()})
	if err != nil {
		writeError(c, ingest.AsError(err))

		return
	}

	c.JSON(http.StatusOK, res)
}

// MediaGroupOptions 预检请求.
//
//	@Summary	批量上传预检
//	@Tags		中继上传
//	@Produce	json
//	@Success	200	{object}	types.SuccessResponse
//	@Router		/api/v1/relay/media-group [options]
func MediaGroupOptions(c *gin.Context) {
	c.JSON(http.StatusOK, types.SuccessResponse{Success: true})
}
