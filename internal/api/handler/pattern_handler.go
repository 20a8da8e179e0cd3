package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"bornfit/backend/internal/dto"
	"bornfit/backend/internal/service"
	pkgerrors "bornfit/backend/pkg/errors"
	"bornfit/backend/pkg/response"
)

// PatternHandler 周期排课规则模块 HTTP 处理器
type PatternHandler struct {
	patternSvc service.PatternService
}

// NewPatternHandler 创建 PatternHandler
func NewPatternHandler(patternSvc service.PatternService) *PatternHandler {
	return &PatternHandler{patternSvc: patternSvc}
}

// CreatePattern 创建周期规则并立即展开
// POST /api/v1/patterns
func (h *PatternHandler) CreatePattern(c *gin.Context) {
	var req dto.CreatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.patternSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.Created(c, result)
}

// GetPattern 获取周期规则详情
// GET /api/v1/patterns/:id
func (h *PatternHandler) GetPattern(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "规则ID不能为空")
		return
	}

	pattern, err := h.patternSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, pattern)
}

// ListPatterns 获取周期规则列表
// GET /api/v1/patterns
func (h *PatternHandler) ListPatterns(c *gin.Context) {
	var req dto.PatternListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	patterns, total, err := h.patternSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OKPage(c, patterns, total, req.GetPage(), req.GetPageSize())
}

// UpdatePattern 更新周期规则并重新展开
// PUT /api/v1/patterns/:id
func (h *PatternHandler) UpdatePattern(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "规则ID不能为空")
		return
	}

	var req dto.UpdatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.patternSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, result)
}

// DeletePattern 删除周期规则
// DELETE /api/v1/patterns/:id
func (h *PatternHandler) DeletePattern(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "规则ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.patternSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.NoContent(c)
}

// ExpandPattern 手工触发一次规则对账
// POST /api/v1/patterns/:id/expand
func (h *PatternHandler) ExpandPattern(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "规则ID不能为空")
		return
	}

	result, err := h.patternSvc.Expand(c.Request.Context(), id)
	if err != nil {
		h.handlePatternError(c, err)
		return
	}

	response.OK(c, result)
}

// handlePatternError 统一处理周期规则模块业务错误
func (h *PatternHandler) handlePatternError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPatternNotFound):
		response.NotFound(c, 12001, "周期规则不存在")
	case errors.Is(err, service.ErrPatternWeekdaysEmpty),
		errors.Is(err, service.ErrPatternWeekdayInvalid),
		errors.Is(err, service.ErrPatternDateInvalid),
		errors.Is(err, service.ErrPatternRangeInverted),
		errors.Is(err, service.ErrPatternWindowPast),
		errors.Is(err, service.ErrPatternStartTimeInvalid),
		errors.Is(err, service.ErrPatternDurationInvalid),
		errors.Is(err, service.ErrPatternCrossMidnight):
		response.BadRequest(c, 12002, err.Error())
	case errors.Is(err, service.ErrPatternCoachGone):
		response.BadRequest(c, 12003, "教练不存在或已停用")
	case errors.Is(err, service.ErrTemplateNotFound):
		response.BadRequest(c, 12004, "课程模板不存在或已停用")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12005, "规则已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrPatternBusy):
		response.Conflict(c, 12006, "该规则正在对账中，请稍后重试")
	default:
		response.InternalError(c)
	}
}
