package relay

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

// ErrFilePathNotFound getFile 没有返回可用路径.
var ErrFilePathNotFound = errors.New("relay: file path not found")

// UpstreamError 上游调用失败，Status 为 0 表示传输层错误.
type UpstreamError struct {
	Method      string
	Status      int
	ErrorCode   int
	Description string
	RetryAfter  time.Duration
	Payload     any // 上游错误体（可解析时），原样透出给调用方
	Err         error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Method, e.Description)
	}

	return fmt.Sprintf("%s: upstream %d: %s", e.Method, e.Status, e.Description)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RateLimited 上游是否要求退避.
func (e *UpstreamError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests || e.ErrorCode == http.StatusTooManyRequests
}

type apiError struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}

// transportError 只保留底层原因，*url.Error 的文本带有含凭据的完整地址.
func transportError(method string, err error) *UpstreamError {
	cause := err

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		cause = urlErr.Err
	}

	return &UpstreamError{
		Method:      method,
		Description: "upstream request failed: " + Redact(cause.Error()),
		Err:         cause,
	}
}

// parseAPIError 从非 2xx（或 ok=false）响应构造 UpstreamError.
func parseAPIError(method string, resp *resty.Response) *UpstreamError {
	ue := &UpstreamError{
		Method:    method,
		Status:    resp.StatusCode(),
		ErrorCode: resp.StatusCode(),
	}

	var body apiError
	if err := sonic.Unmarshal(resp.Body(), &body); err == nil {
		ue.Payload = body
		if body.ErrorCode != 0 {
			ue.ErrorCode = body.ErrorCode
		}

		ue.Description = body.Description

		if body.Parameters != nil && body.Parameters.RetryAfter > 0 {
			ue.RetryAfter = time.Duration(body.Parameters.RetryAfter) * time.Second
		}
	}

	if ue.Description == "" {
		ue.Description = fmt.Sprintf("upstream API error: %d %s", resp.StatusCode(), http.StatusText(resp.StatusCode()))
	}

	if ue.RetryAfter == 0 {
		if secs, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil && secs > 0 {
			ue.RetryAfter = time.Duration(secs) * time.Second
		}
	}

	return ue
}
