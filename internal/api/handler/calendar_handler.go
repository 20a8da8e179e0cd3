package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"bornfit/backend/internal/dto"
	"bornfit/backend/internal/service"
	"bornfit/backend/pkg/response"
)

// CalendarHandler 聚合日历模块 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// GetCalendar 获取聚合日历视图
// GET /api/v1/calendar?anchor=2025-01-06&granularity=week&owner_ids=...&source_types=...
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	var req dto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	calendar, err := h.calendarSvc.GetCalendar(c.Request.Context(), &req)
	if err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.OK(c, calendar)
}

// DeleteEntry 删除日历条目（仅手动占用时段）
// DELETE /api/v1/calendar/entries/:source_type/:source_id
func (h *CalendarHandler) DeleteEntry(c *gin.Context) {
	sourceType := c.Param("source_type")
	sourceID := c.Param("source_id")
	if sourceType == "" || sourceID == "" {
		response.BadRequest(c, 10001, "条目来源与ID不能为空")
		return
	}

	if err := h.calendarSvc.DeleteManualEntry(c.Request.Context(), sourceType, sourceID); err != nil {
		h.handleCalendarError(c, err)
		return
	}

	response.NoContent(c)
}

// handleCalendarError 统一处理聚合日历模块业务错误
func (h *CalendarHandler) handleCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCalendarAnchorInvalid):
		response.BadRequest(c, 15001, "锚点日期格式应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrEntryNotDeletable):
		response.BadRequest(c, 15002, "只有手动占用时段可以在日历中删除")
	case errors.Is(err, service.ErrManualBlockNotFound):
		response.NotFound(c, 15003, "手动占用时段不存在")
	default:
		response.InternalError(c)
	}
}
