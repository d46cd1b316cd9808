// Package relay 封装上游 Bot API：批量发送媒体组、解析文件路径以及下载文件.
package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/log"
	"github.com/yeisme/relayvault/pkg/metrics"
)

const (
	MethodSendMediaGroup = "sendMediaGroup"
	MethodGetFile        = "getFile"
	MethodDownload       = "download"
)

// Target 一次调用使用的上游凭据与目标会话.
type Target struct {
	BotToken string
	ChatID   string
	ProxyURL string // 可选，代理域名（可带 scheme）
}

// Attachment 一个待上传的文件分片.
type Attachment struct {
	Key      string // multipart 字段名，descriptor 通过 attach://<Key> 引用
	FileName string
	MimeType string
	Data     []byte
}

// MediaDescriptor sendMediaGroup 的 media 数组元素.
type MediaDescriptor struct {
	Type    string `json:"type"`
	Media   string `json:"media"`
	Caption string `json:"caption,omitempty"`
}

// AttachRef 返回 descriptor 中引用附件的地址.
func AttachRef(key string) string { return "attach://" + key }

// Client 上游 API 客户端，可并发使用.
type Client struct {
	http    *resty.Client
	apiBase string
}

// New 根据配置创建客户端.
func New(cfg configs.RelayConfig) *Client {
	base := strings.TrimRight(cfg.APIBase, "/")
	if base == "" {
		base = configs.DefaultRelayAPIBase
	}

	hc := resty.New().
		SetLogger(restyLogger{l: log.Component("relay")}).
		SetDebug(cfg.Debug)

	if cfg.UserAgent != "" {
		hc.SetHeader("User-Agent", cfg.UserAgent)
	}

	if cfg.Timeout > 0 {
		hc.SetTimeout(cfg.Timeout)
	}

	return &Client{http: hc, apiBase: base}
}

// baseURL 优先使用频道代理.
func (c *Client) baseURL(t Target) string {
	proxy := strings.TrimRight(t.ProxyURL, "/")
	if proxy == "" {
		return c.apiBase
	}

	if strings.HasPrefix(proxy, "http://") || strings.HasPrefix(proxy, "https://") {
		return proxy
	}

	return "https://" + proxy
}

func (c *Client) methodURL(t Target, method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL(t), t.BotToken, method)
}

// FileURL 返回已解析路径对应的下载地址，地址内含凭据，不得外泄.
func (c *Client) FileURL(t Target, filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL(t), t.BotToken, strings.TrimLeft(filePath, "/"))
}

// SendBatch 以一次 multipart 请求发送整组附件.
// 返回结果中的消息顺序与 attachments 顺序一致.
func (c *Client) SendBatch(ctx context.Context, t Target, attachments []Attachment, media []MediaDescriptor) (*RawResult, error) {
	mediaJSON, err := sonic.Marshal(media)
	if err != nil {
		return nil, fmt.Errorf("encode media: %w", err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"chat_id": t.ChatID,
			"media":   string(mediaJSON),
		})

	for _, a := range attachments {
		req.SetMultipartField(a.Key, a.FileName, a.MimeType, bytes.NewReader(a.Data))
	}

	start := time.Now()
	resp, err := req.Post(c.methodURL(t, MethodSendMediaGroup))

	if err != nil {
		observe(MethodSendMediaGroup, "transport", start)

		return nil, transportError(MethodSendMediaGroup, err)
	}

	if !resp.IsSuccess() {
		observe(MethodSendMediaGroup, "error", start)

		return nil, parseAPIError(MethodSendMediaGroup, resp)
	}

	var out RawResult
	if err := sonic.Unmarshal(resp.Body(), &out); err != nil {
		observe(MethodSendMediaGroup, "error", start)

		return nil, &UpstreamError{
			Method:      MethodSendMediaGroup,
			Status:      resp.StatusCode(),
			Description: "undecodable response",
			Err:         err,
		}
	}

	if !out.OK {
		observe(MethodSendMediaGroup, "error", start)

		return nil, parseAPIError(MethodSendMediaGroup, resp)
	}

	observe(MethodSendMediaGroup, "ok", start)

	return &out, nil
}

type getFileResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		FileID   string `json:"file_id"`
		FilePath string `json:"file_path"`
		FileSize int64  `json:"file_size"`
	} `json:"result"`
	Description string `json:"description"`
}

// ResolveFilePath 通过 getFile 查询文件路径.
// 上游返回 ok=false 或路径为空时返回 ErrFilePathNotFound.
func (c *Client) ResolveFilePath(ctx context.Context, t Target, fileID string) (string, error) {
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("file_id", fileID).
		Get(c.methodURL(t, MethodGetFile))
	if err != nil {
		observe(MethodGetFile, "transport", start)

		return "", transportError(MethodGetFile, err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		observe(MethodGetFile, "error", start)

		return "", parseAPIError(MethodGetFile, resp)
	}

	var out getFileResponse
	if err := sonic.Unmarshal(resp.Body(), &out); err != nil || !out.OK || out.Result.FilePath == "" {
		observe(MethodGetFile, "miss", start)

		return "", fmt.Errorf("%w: %s", ErrFilePathNotFound, fileID)
	}

	observe(MethodGetFile, "ok", start)

	return out.Result.FilePath, nil
}

// Download 是已打开的文件流，调用方负责 Close.
// 带 Range 请求且上游支持时 Status 为 206，ContentRange 原样取自上游.
type Download struct {
	Body          io.ReadCloser
	Status        int
	ContentType   string
	ContentLength int64
	ContentRange  string
	AcceptRanges  string
}

// DownloadFile 流式下载已解析路径的文件. rangeHeader 非空时原样转发给上游.
func (c *Client) DownloadFile(ctx context.Context, t Target, filePath, rangeHeader string) (*Download, error) {
	start := time.Now()

	req := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)

	if rangeHeader != "" {
		req.SetHeader("Range", rangeHeader)
	}

	resp, err := req.Get(c.FileURL(t, filePath))
	if err != nil {
		observe(MethodDownload, "transport", start)

		return nil, transportError(MethodDownload, err)
	}

	if !resp.IsSuccess() {
		_ = resp.RawBody().Close()

		observe(MethodDownload, "error", start)

		return nil, &UpstreamError{
			Method:      MethodDownload,
			Status:      resp.StatusCode(),
			ErrorCode:   resp.StatusCode(),
			Description: "download " + url.PathEscape(filePath) + " failed",
			Payload:     rangePayload(resp),
		}
	}

	observe(MethodDownload, "ok", start)

	return &Download{
		Body:          resp.RawBody(),
		Status:        resp.StatusCode(),
		ContentType:   resp.Header().Get("Content-Type"),
		ContentLength: resp.RawResponse.ContentLength,
		ContentRange:  resp.Header().Get("Content-Range"),
		AcceptRanges:  resp.Header().Get("Accept-Ranges"),
	}, nil
}

// RangeNotSatisfiable 上游拒绝了请求的字节范围.
func (e *UpstreamError) RangeNotSatisfiable() bool {
	return e.Status == http.StatusRequestedRangeNotSatisfiable
}

// rangePayload 416 时带回上游给出的文件总长度.
func rangePayload(resp *resty.Response) any {
	if resp.StatusCode() != http.StatusRequestedRangeNotSatisfiable {
		return nil
	}

	if cr := resp.Header().Get("Content-Range"); cr != "" {
		return map[string]string{"contentRange": cr}
	}

	return nil
}

func observe(method, result string, start time.Time) {
	metrics.RelayDuration.WithLabelValues(method, result).Observe(time.Since(start).Seconds())
}

// restyLogger 把 resty 的日志接到 zerolog，debug 模式下的请求地址同样去掉凭据.
type restyLogger struct {
	l zerolog.Logger
}

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error().Msg(Redact(fmt.Sprintf(format, v...))) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warn().Msg(Redact(fmt.Sprintf(format, v...))) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug().Msg(Redact(fmt.Sprintf(format, v...))) }
