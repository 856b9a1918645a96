package api_router

import (
	"github.com/haierkeys/content-revision-service/internal/app"
	"github.com/haierkeys/content-revision-service/internal/dto"
	pkgapp "github.com/haierkeys/content-revision-service/pkg/app"
	"github.com/haierkeys/content-revision-service/pkg/code"
	apperrors "github.com/haierkeys/content-revision-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ContentHandler 内容 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type ContentHandler struct {
	*Handler
}

// NewContentHandler 创建 ContentHandler 实例
func NewContentHandler(a *app.App) *ContentHandler {
	return &ContentHandler{
		Handler: NewHandler(a),
	}
}

// Create 创建内容
// @Summary 创建内容
// @Description 创建内容并把初始文本记录为版本 1
// @Tags 内容
// @Accept json
// @Produce json
// @Param kind path string true "内容类型 note / task / transaction"
// @Param params body dto.ContentCreateRequest true "创建参数"
// @Success 200 {object} pkgapp.Res{data=dto.ContentDTO} "成功"
// @Router /api/{kind}/contents [post]
func (h *ContentHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	kind, ok := h.kind(c, response)
	if !ok {
		return
	}

	params := &dto.ContentCreateRequest{}
	if !h.bind(c, response, "ContentHandler.Create", params) {
		return
	}

	ctx := c.Request.Context()

	content, err := h.App.ContentService.Create(ctx, kind, params)
	if err != nil {
		h.logError(ctx, "ContentHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessCreate.WithData(content))
}

// Get 获取内容
// @Summary 获取内容
// @Description 获取内容的当前文本和版本概况
// @Tags 内容
// @Produce json
// @Param kind path string true "内容类型"
// @Param id query int64 true "内容 ID"
// @Success 200 {object} pkgapp.Res{data=dto.ContentDTO} "成功"
// @Router /api/{kind}/content [get]
func (h *ContentHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	kind, ok := h.kind(c, response)
	if !ok {
		return
	}

	params := &dto.ContentGetRequest{}
	if !h.bind(c, response, "ContentHandler.Get", params) {
		return
	}

	ctx := c.Request.Context()

	content, err := h.App.ContentService.Get(ctx, kind, params.ID)
	if err != nil {
		h.logError(ctx, "ContentHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(content))
}

// Update 修改内容文本
// @Summary 修改内容
// @Description 记录一个新版本后替换当前文本
// @Tags 内容
// @Accept json
// @Produce json
// @Param kind path string true "内容类型"
// @Param params body dto.ContentUpdateRequest true "修改参数"
// @Success 200 {object} pkgapp.Res{data=dto.ContentDTO} "成功"
// @Router /api/{kind}/content [put]
func (h *ContentHandler) Update(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	kind, ok := h.kind(c, response)
	if !ok {
		return
	}

	params := &dto.ContentUpdateRequest{}
	if !h.bind(c, response, "ContentHandler.Update", params) {
		return
	}

	ctx := c.Request.Context()

	content, err := h.App.ContentService.Update(ctx, kind, params)
	if err != nil {
		h.logError(ctx, "ContentHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessUpdate.WithData(content))
}

// Delete 删除内容及其版本历史
// @Summary 删除内容
// @Tags 内容
// @Produce json
// @Param kind path string true "内容类型"
// @Param id query int64 true "内容 ID"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/{kind}/content [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	kind, ok := h.kind(c, response)
	if !ok {
		return
	}

	params := &dto.ContentGetRequest{}
	if !h.bind(c, response, "ContentHandler.Delete", params) {
		return
	}

	ctx := c.Request.Context()

	if err := h.App.ContentService.Delete(ctx, kind, params.ID); err != nil {
		h.logError(ctx, "ContentHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessDelete)
}

// List 获取条目下的内容列表
// @Summary 内容列表
// @Description 按更新时间倒序分页获取条目下的内容（不含文本）
// @Tags 内容
// @Produce json
// @Param kind path string true "内容类型"
// @Param itemId query int64 true "条目 ID"
// @Param params query pkgapp.PaginationRequest false "分页参数"
// @Success 200 {object} pkgapp.Res{data=pkgapp.ListRes{list=[]dto.ContentNoTextDTO}} "成功"
// @Router /api/{kind}/contents [get]
func (h *ContentHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	kind, ok := h.kind(c, response)
	if !ok {
		return
	}

	params := &dto.ContentListRequest{}
	if !h.bind(c, response, "ContentHandler.List", params) {
		return
	}

	ctx := c.Request.Context()

	list, count, err := h.App.ContentService.List(ctx, kind, params.ItemID, pkgapp.GetPage(c), pkgapp.GetPageSize(c))
	if err != nil {
		h.logError(ctx, "ContentHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, int(count))
}
