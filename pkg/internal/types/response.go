// Package types 定义 HTTP 接口的请求与响应结构.
package types

import (
	"github.com/yeisme/relayvault/pkg/internal/ingest"
)

// ErrorResponse 所有失败响应的统一结构.
type ErrorResponse struct {
	Success           bool   `json:"success"`
	Code              string `json:"code"                        example:"INVALID_REQUEST"`
	Error             string `json:"error"                       example:"Too few files: got 1, min 2"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty" example:"30"`
	Details           any    `json:"details,omitempty"`
}

// NewErrorResponse 把流程错误转换为响应体.
func NewErrorResponse(e *ingest.Error) ErrorResponse {
	resp := ErrorResponse{
		Code:    string(e.Code),
		Error:   e.Message,
		Details: e.Details,
	}

	if e.RetryAfter > 0 {
		resp.RetryAfterSeconds = int(e.RetryAfter.Seconds())
	}

	return resp
}

// ErrorOf 直接按错误码构造响应体，供中间件使用.
func ErrorOf(code ingest.Code, msg string) ErrorResponse {
	return ErrorResponse{Code: string(code), Error: msg}
}

// SuccessResponse 无数据的成功响应，例如 CORS 预检.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}
