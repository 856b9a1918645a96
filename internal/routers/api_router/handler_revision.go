package api_router

import (
	"errors"

	"github.com/haierkeys/content-revision-service/internal/app"
	"github.com/haierkeys/content-revision-service/internal/dto"
	pkgapp "github.com/haierkeys/content-revision-service/pkg/app"
	"github.com/haierkeys/content-revision-service/pkg/code"
	apperrors "github.com/haierkeys/content-revision-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// RevisionHandler 版本历史 API 路由处理器
type RevisionHandler struct {
	*Handler
}

// NewRevisionHandler 创建 RevisionHandler 实例
func NewRevisionHandler(a *app.App) *RevisionHandler {
	return &RevisionHandler{
		Handler: NewHandler(a),
	}
}

// List 获取版本列表
// @Summary 版本列表
// @Description 分页获取内容保留的版本元信息，最新版本在前
// @Tags 版本历史
// @Produce json
// @Param kind path string true "内容类型"
// @Param id query int64 true "内容 ID"
// @Param params query pkgapp.PaginationRequest false "分页参数"
// @Success 200 {object} pkgapp.Res{data=pkgapp.ListRes{list=[]dto.RevisionDTO}} "成功"
// @Router /api/{kind}/content/revisions [get]
func (h *RevisionHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	kind, ok := h.kind(c, response)
	if !ok {
		return
	}

	params := &dto.RevisionListRequest{}
	if !h.bind(c, response, "RevisionHandler.List", params) {
		return
	}

	ctx := c.Request.Context()

	list, count, err := h.App.RevisionService.List(ctx, kind, params.ID, pkgapp.GetPage(c), pkgapp.GetPageSize(c))
	if err != nil {
		h.logError(ctx, "RevisionHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, int(count))
}

// Get 获取历史版本文本
// @Summary 历史版本
// @Description 重建指定版本应用后的文本，最新版本直接返回当前文本
// @Tags 版本历史
// @Produce json
// @Param kind path string true "内容类型"
// @Param id query int64 true "内容 ID"
// @Param revisionId query int64 true "版本号"
// @Success 200 {object} pkgapp.Res{data=dto.RevisionTextDTO} "成功"
// @Router /api/{kind}/content/revision [get]
func (h *RevisionHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	kind, ok := h.kind(c, response)
	if !ok {
		return
	}

	params := &dto.RevisionGetRequest{}
	if !h.bind(c, response, "RevisionHandler.Get", params) {
		return
	}

	ctx := c.Request.Context()

	rev, err := h.App.RevisionService.Get(ctx, kind, params.ID, params.RevisionID)
	if err != nil {
		h.logError(ctx, "RevisionHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(rev))
}

// Restore 从历史版本恢复
// @Summary 恢复历史版本
// @Description 重建历史版本文本，并作为新版本写入
// @Tags 版本历史
// @Accept json
// @Produce json
// @Param kind path string true "内容类型"
// @Param params body dto.RevisionRestoreRequest true "恢复参数"
// @Success 200 {object} pkgapp.Res{data=dto.ContentDTO} "成功"
// @Router /api/{kind}/content/revision/restore [put]
func (h *RevisionHandler) Restore(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	kind, ok := h.kind(c, response)
	if !ok {
		return
	}

	params := &dto.RevisionRestoreRequest{}
	if !h.bind(c, response, "RevisionHandler.Restore", params) {
		return
	}

	ctx := c.Request.Context()

	content, err := h.App.RevisionService.Restore(ctx, kind, params)
	if err != nil {
		h.logError(ctx, "RevisionHandler.Restore", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessRestore.WithData(content))
}

// Verify 校验单个内容的版本账本
// @Summary 校验版本账本
// @Description 完整回放账本，损坏时在 corrupt 中返回内容 ID
// @Tags 版本历史
// @Produce json
// @Param kind path string true "内容类型"
// @Param id query int64 true "内容 ID"
// @Success 200 {object} pkgapp.Res{data=dto.VerifyReportDTO} "成功"
// @Router /api/{kind}/content/revision/verify [get]
func (h *RevisionHandler) Verify(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	kind, ok := h.kind(c, response)
	if !ok {
		return
	}

	params := &dto.ContentGetRequest{}
	if !h.bind(c, response, "RevisionHandler.Verify", params) {
		return
	}

	ctx := c.Request.Context()
	report := &dto.VerifyReportDTO{Kind: string(kind), Checked: 1, Corrupt: []int64{}}

	if err := h.App.RevisionService.Verify(ctx, kind, params.ID); err != nil {
		var codeErr *code.Code
		if !errors.As(err, &codeErr) || codeErr.Code() != code.ErrorRevisionCorrupted.Code() {
			h.logError(ctx, "RevisionHandler.Verify", err)
			apperrors.ErrorResponse(c, err)
			return
		}
		report.Corrupt = append(report.Corrupt, params.ID)
		response.ToResponse(code.Success.WithData(report).WithDetails(codeErr.Details()...))
		return
	}

	response.ToResponse(code.Success.WithData(report))
}
