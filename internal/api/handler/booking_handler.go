package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"bornfit/backend/internal/dto"
	"bornfit/backend/internal/service"
	"bornfit/backend/pkg/response"
)

// BookingHandler 预约/签到模块 HTTP 处理器
type BookingHandler struct {
	bookingSvc service.BookingService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// Book 预约课程
// POST /api/v1/sessions/:id/bookings
func (h *BookingHandler) Book(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.BadRequest(c, 10001, "实例ID不能为空")
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	booking, err := h.bookingSvc.Book(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.Created(c, booking)
}

// ListBookings 列出实例下全部预约记录
// GET /api/v1/sessions/:id/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.BadRequest(c, 10001, "实例ID不能为空")
		return
	}

	bookings, err := h.bookingSvc.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": bookings})
}

// CancelBooking 取消预约
// DELETE /api/v1/bookings/:id
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "预约ID不能为空")
		return
	}

	if err := h.bookingSvc.Cancel(c.Request.Context(), id); err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.NoContent(c)
}

// CheckIn 扫码签到
// POST /api/v1/sessions/:id/checkin
func (h *BookingHandler) CheckIn(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		response.BadRequest(c, 10001, "实例ID不能为空")
		return
	}

	var req dto.CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	booking, err := h.bookingSvc.CheckIn(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	response.OK(c, booking)
}

// handleBookingError 统一处理预约模块业务错误
func (h *BookingHandler) handleBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 14001, "课程实例不存在")
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 14002, "预约记录不存在")
	case errors.Is(err, service.ErrSessionFull):
		response.Conflict(c, 14003, "课程名额已满")
	case errors.Is(err, service.ErrAlreadyBooked):
		response.Conflict(c, 14004, "已预约该课程，请勿重复预约")
	case errors.Is(err, service.ErrSessionEnded):
		response.BadRequest(c, 14005, "课程已结束，无法预约")
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		response.Conflict(c, 14006, "已签到的预约不能取消")
	case errors.Is(err, service.ErrBookingIsCancelled):
		response.BadRequest(c, 14007, "预约已取消")
	default:
		response.InternalError(c)
	}
}
