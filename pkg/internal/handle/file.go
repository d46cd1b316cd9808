package handle

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/relayvault/pkg/context"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/relay"
	"github.com/yeisme/relayvault/pkg/internal/service"
	"github.com/yeisme/relayvault/pkg/internal/types"
	"github.com/yeisme/relayvault/pkg/log"
)

const (
	// CodeFileNotFound 读取接口专用的错误码.
	CodeFileNotFound = "FILE_NOT_FOUND"

	fileCacheControl = "public, max-age=86400"
)

// storageID 取出通配路由中的 storage id，gin 已完成路径反转义.
func storageID(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("id"), "/")
}

// ServeFile 代理读取已中继的文件内容，Range 请求转发给上游并原样返回 206.
//
//	@Summary		读取文件
//	@Description	按 storage id 从上游频道下载文件并以记录中的 MIME 类型返回，支持 Range
//	@Tags			文件读取
//	@Produce		octet-stream
//	@Param			id		path		string	true	"storage id"
//	@Param			Range	header		string	false	"字节范围，如 bytes=0-1023"
//	@Success		200		{file}		binary
//	@Success		206		{file}		binary
//	@Failure		404		{object}	types.ErrorResponse
//	@Failure		416		{object}	types.ErrorResponse
//	@Failure		429	{object}	types.ErrorResponse
//	@Failure		502	{object}	types.ErrorResponse
//	@Router			/file/{id} [get]
func ServeFile(c *gin.Context) {
	ctx := c.Request.Context()
	id := storageID(c)

	rc := ctxPkg.GetRelayClient(ctx)
	if rc == nil {
		writeError(c, ingest.NewError(ingest.CodeInternal, "Service not ready"))

		return
	}

	svc := service.NewFileService(ctx, rc, nil)

	rec, dl, err := svc.Open(ctx, id, c.GetHeader("Range"))
	if err != nil {
		writeFileError(c, id, err)

		return
	}
	defer dl.Body.Close()

	contentType := rec.MimeType
	if contentType == "" {
		contentType = dl.ContentType
	}

	headers := map[string]string{
		"Cache-Control":       fileCacheControl,
		"Content-Disposition": mime.FormatMediaType("inline", map[string]string{"filename": rec.FileName}),
		"Accept-Ranges":       "bytes",
	}

	status := http.StatusOK
	if dl.Status == http.StatusPartialContent {
		status = http.StatusPartialContent
		headers["Content-Range"] = dl.ContentRange
	}

	c.DataFromReader(status, dl.ContentLength, contentType, dl.Body, headers)
}

// ListFiles 按目录列出文件记录.
//
//	@Summary		列出目录
//	@Description	sort: timeDesc(默认) timeAsc nameAsc nameDesc sizeAsc sizeDesc
//	@Tags			文件读取
//	@Produce		json
//	@Param			dir			query		string	false	"目录，空为根目录"
//	@Param			q			query		string	false	"按文件名过滤"
//	@Param			start		query		int		false	"起始位置"
//	@Param			count		query		int		false	"数量，默认 50，最大 200"
//	@Param			sort		query		string	false	"排序方式"
//	@Param			recursive	query		bool	false	"包含子目录"
//	@Success		200			{object}	types.FileListResponse
//	@Failure		400			{object}	types.ErrorResponse
//	@Router			/api/v1/files/list [get]
func ListFiles(c *gin.Context) {
	ctx := c.Request.Context()

	search := c.Query("q")
	if search == "" {
		search = c.Query("search")
	}

	q := service.ListQuery{
		Dir:       c.Query("dir"),
		Search:    search,
		Start:     queryInt(c, "start", 0),
		Count:     queryInt(c, "count", service.DefaultListCount),
		Sort:      c.Query("sort"),
		Recursive: c.Query("recursive") == "true",
	}

	page, err := service.NewFileService(ctx, nil, nil).List(ctx, q)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDirectory) {
			writeError(c, ingest.NewError(ingest.CodeInvalidRequest, "Invalid dir"))

			return
		}

		log.Ctx(ctx).Error().Err(err).Str("dir", q.Dir).Msg("list files failed")
		writeError(c, ingest.NewError(ingest.CodeInternal, "Failed to list files"))

		return
	}

	files := make([]types.FileMetaResponse, len(page.Entries))
	for i, e := range page.Entries {
		files[i] = types.FileMetaResponse{
			StorageID:   e.StorageID,
			StoragePath: ingest.StoragePath(e.StorageID),
			Record:      e.Record,
		}
	}

	c.JSON(http.StatusOK, types.FileListResponse{
		Files:         files,
		TotalCount:    page.Total,
		ReturnedCount: len(files),
		Start:         page.Query.Start,
		Count:         page.Query.Count,
		Sort:          page.Query.Sort,
		Recursive:     page.Query.Recursive,
		Directory:     page.Directory,
		Directories:   page.Directories,
	})
}

// queryInt 非数字时取默认值.
func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}

	return n
}

// FileMeta 返回文件元数据记录.
//
//	@Summary	查询文件元数据
//	@Tags		文件读取
//	@Produce	json
//	@Param		id	path		string	true	"storage id"
//	@Success	200	{object}	types.FileMetaResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/v1/files/meta/{id} [get]
func FileMeta(c *gin.Context) {
	ctx := c.Request.Context()
	id := storageID(c)

	rec, err := service.NewFileService(ctx, nil, nil).Meta(ctx, id)
	if err != nil {
		writeFileError(c, id, err)

		return
	}

	c.JSON(http.StatusOK, types.FileMetaResponse{
		StorageID:   id,
		StoragePath: ingest.StoragePath(id),
		Record:      rec,
	})
}

func writeFileError(c *gin.Context, id string, err error) {
	var upErr *relay.UpstreamError

	switch {
	case errors.Is(err, service.ErrFileNotFound), errors.Is(err, relay.ErrFilePathNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{Code: CodeFileNotFound, Error: "File not found"})
	case errors.Is(err, service.ErrChannelGone):
		c.JSON(http.StatusNotFound, types.ErrorOf(ingest.CodeChannelNotFound, err.Error()))
	case errors.As(err, &upErr) && upErr.RangeNotSatisfiable():
		if cr, ok := upErr.Payload.(map[string]string); ok {
			c.Header("Content-Range", cr["contentRange"])
		}

		c.JSON(http.StatusRequestedRangeNotSatisfiable,
			types.ErrorOf(ingest.CodeInvalidRequest, "Requested range not satisfiable"))
	case errors.As(err, &upErr) && upErr.RateLimited():
		e := ingest.NewError(ingest.CodeRateLimit, "Upstream rate limited")
		e.RetryAfter = upErr.RetryAfter
		writeError(c, e)
	case errors.As(err, &upErr):
		e := ingest.NewError(ingest.CodeUpstream, upErr.Description)
		e.Details = upErr.Payload
		writeError(c, e)
	default:
		log.Ctx(c.Request.Context()).Error().Err(err).Str("storage_id", id).Msg("read file failed")
		writeError(c, ingest.NewError(ingest.CodeInternal, "Failed to read file"))
	}
}
