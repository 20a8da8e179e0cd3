package handler

import "bornfit/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Pattern     *PatternHandler
	Session     *SessionHandler
	Booking     *BookingHandler
	Calendar    *CalendarHandler
	ManualBlock *ManualBlockHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Pattern:     NewPatternHandler(svc.Pattern),
		Session:     NewSessionHandler(svc.Session, svc.Occupancy),
		Booking:     NewBookingHandler(svc.Booking),
		Calendar:    NewCalendarHandler(svc.Calendar),
		ManualBlock: NewManualBlockHandler(svc.ManualBlock),
	}
}
