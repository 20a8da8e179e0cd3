package dto

// ── 预约签到模块 DTO ──

// CreateBookingRequest 会员预约请求
type CreateBookingRequest struct {
	MemberID string `json:"member_id" binding:"required,uuid"`
}

// CheckinRequest 扫码签到请求
type CheckinRequest struct {
	MemberID string `json:"member_id" binding:"required,uuid"`
}

// ── 响应 ──

// BookingResponse 预约记录响应
type BookingResponse struct {
	ID          string  `json:"id"`
	SessionID   string  `json:"session_id"`
	MemberID    string  `json:"member_id"`
	Status      string  `json:"status"`
	CheckedInAt *string `json:"checked_in_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}
