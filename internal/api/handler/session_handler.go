package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"bornfit/backend/internal/dto"
	"bornfit/backend/internal/service"
	"bornfit/backend/pkg/response"
)

// SessionHandler 课程实例模块 HTTP 处理器
type SessionHandler struct {
	sessionSvc   service.SessionService
	occupancySvc service.OccupancyService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService, occupancySvc service.OccupancyService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc, occupancySvc: occupancySvc}
}

// CreateSession 创建单次课
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, session)
}

// GetSession 获取课程实例详情（含满员度）
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "实例ID不能为空")
		return
	}

	session, err := h.sessionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// ClassifySession 查询实例满员度分类
// GET /api/v1/sessions/:id/occupancy
func (h *SessionHandler) ClassifySession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "实例ID不能为空")
		return
	}

	occupancy, err := h.occupancySvc.Classify(c.Request.Context(), id)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, occupancy)
}

// UpdateSession 更新课程实例
// PUT /api/v1/sessions/:id
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "实例ID不能为空")
		return
	}

	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// DeleteSession 删除单次课
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "实例ID不能为空")
		return
	}

	if err := h.sessionSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.NoContent(c)
}

// handleSessionError 统一处理课程实例模块业务错误
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 13001, "课程实例不存在")
	case errors.Is(err, service.ErrSessionTimeInvalid),
		errors.Is(err, service.ErrPatternStartTimeInvalid):
		response.BadRequest(c, 13002, err.Error())
	case errors.Is(err, service.ErrSessionHasCheckins):
		response.Conflict(c, 13003, "实例已有签到记录，不能改动时间")
	case errors.Is(err, service.ErrSessionPatternOwned):
		response.BadRequest(c, 13004, "规则生成的实例请通过规则编辑调整")
	case errors.Is(err, service.ErrPatternCoachGone):
		response.BadRequest(c, 13005, "教练不存在或已停用")
	case errors.Is(err, service.ErrTemplateNotFound):
		response.BadRequest(c, 13006, "课程模板不存在或已停用")
	default:
		response.InternalError(c)
	}
}
