// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"
	"errors"
	"net/http"

	"github.com/haierkeys/content-revision-service/internal/app"
	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/internal/middleware"
	pkgapp "github.com/haierkeys/content-revision-service/pkg/app"
	"github.com/haierkeys/content-revision-service/pkg/code"
	"github.com/haierkeys/content-revision-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// kind 解析路径中的 :kind，不支持时直接输出错误响应
func (h *Handler) kind(c *gin.Context, response *pkgapp.Response) (domain.Kind, bool) {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		response.ToResponse(code.ErrorContentKindInvalid.WithDetails(c.Param("kind")))
		return "", false
	}
	return kind, true
}

// bind 绑定并校验参数，失败时输出 ErrorInvalidParams
func (h *Handler) bind(c *gin.Context, response *pkgapp.Response, method string, params any) bool {
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn(method+".BindAndValid errs",
			zap.Error(errs),
			zap.String(logger.FieldTraceID, middleware.GetTraceIDFromGin(c)))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return false
	}
	return true
}

// logError 客户端错误记为 warn，其余记为 error
func (h *Handler) logError(ctx context.Context, method string, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
	}
	var codeErr *code.Code
	if errors.As(err, &codeErr) && codeErr.StatusCode() < http.StatusInternalServerError {
		h.App.Logger().Warn(method, fields...)
		return
	}
	h.App.Logger().Error(method, fields...)
}
