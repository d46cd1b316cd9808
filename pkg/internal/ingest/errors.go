package ingest

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Code 对外稳定的错误码.
type Code string

const (
	CodeInvalidRequest  Code = "INVALID_REQUEST"
	CodeAuth            Code = "AUTH_ERROR"
	CodeChannelNotFound Code = "CHANNEL_NOT_FOUND"
	CodeRateLimit       Code = "RATE_LIMIT"
	CodeUpstream        Code = "UPSTREAM_ERROR"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Status 错误码对应的 HTTP 状态.
func (c Code) Status() int {
	switch c {
	case CodeInvalidRequest, CodeChannelNotFound:
		return http.StatusBadRequest
	case CodeAuth:
		return http.StatusUnauthorized
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error 批量上传流程的终止错误，每个 Code 对应唯一的响应形状.
type Error struct {
	Code       Code
	Message    string
	Status     int
	RetryAfter time.Duration // 仅 RATE_LIMIT，未知时为 0
	Details    any           // 仅 UPSTREAM_ERROR，上游错误体
	Stage      Stage
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按 Code 比较，便于 errors.Is(err, &ingest.Error{Code: ...}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.Code == e.Code
}

// NewError 传输层构造错误，例如请求体过大.
func NewError(code Code, msg string) *Error {
	return newError(code, msg)
}

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Status: code.Status()}
}

func invalidf(format string, args ...any) *Error {
	return newError(CodeInvalidRequest, fmt.Sprintf(format, args...))
}

func channelNotFound(msg string) *Error {
	return newError(CodeChannelNotFound, msg)
}

func upstreamf(details any, format string, args ...any) *Error {
	e := newError(CodeUpstream, fmt.Sprintf(format, args...))
	e.Details = details

	return e
}

func internal(msg string, err error) *Error {
	e := newError(CodeInternal, msg)
	e.Err = err

	return e
}

// ErrUnauthorized 鉴权失败.
var ErrUnauthorized = newError(CodeAuth, "Unauthorized")

// AsError 把任意错误归入错误分类，未识别的归为 INTERNAL_ERROR.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return internal(err.Error(), err)
}
