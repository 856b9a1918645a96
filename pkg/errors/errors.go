// Package errors 将服务层错误统一转换为 HTTP 错误响应
package errors

import (
	"errors"
	"net/http"
	"time"

	"github.com/haierkeys/content-revision-service/internal/middleware"
	"github.com/haierkeys/content-revision-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// AppError 统一错误响应体
type AppError struct {
	Code      int       `json:"code"`
	Status    bool      `json:"status"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	TraceID   string    `json:"traceId,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	httpStatus int
	cause      error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// HTTPStatus 响应使用的 HTTP 状态码
func (e *AppError) HTTPStatus() int {
	return e.httpStatus
}

// FromError resolves err into an AppError. A *code.Code anywhere in the chain
// decides code and HTTP status; anything else becomes an internal error.
//
// FromError 将任意错误转换为 AppError，无法识别的错误视为内部错误
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var codeErr *code.Code
	if errors.As(err, &codeErr) {
		return &AppError{
			Code:       codeErr.Code(),
			Message:    codeErr.Msg(),
			Details:    codeErr.Details(),
			Timestamp:  time.Now(),
			httpStatus: codeErr.StatusCode(),
			cause:      err,
		}
	}

	return &AppError{
		Code:       code.ErrorServerInternal.Code(),
		Message:    http.StatusText(http.StatusInternalServerError),
		Timestamp:  time.Now(),
		httpStatus: http.StatusInternalServerError,
		cause:      err,
	}
}

// ErrorResponse 写出错误响应并附带当前请求的 TraceID
func ErrorResponse(c *gin.Context, err error) {
	appErr := FromError(err)
	appErr.TraceID = middleware.GetTraceIDFromGin(c)
	if appErr.httpStatus == 0 {
		appErr.httpStatus = http.StatusInternalServerError
	}
	c.Set("status_code", appErr.httpStatus)
	c.JSON(appErr.httpStatus, appErr)
}
