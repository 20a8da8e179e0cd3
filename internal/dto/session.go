package dto

// ── 课程实例模块 DTO ──

// CreateSessionRequest 创建单次课请求（不挂周期规则）
// capacity 缺省时取课程模板容量
type CreateSessionRequest struct {
	CoachID    string `json:"coach_id"    binding:"required,uuid"`
	TemplateID string `json:"template_id" binding:"required,uuid"`
	Date       string `json:"date"        binding:"required"` // "2006-01-02"
	StartTime  string `json:"start_time"  binding:"required"` // "HH:MM"
	EndTime    string `json:"end_time"    binding:"required"`
	Capacity   *int   `json:"capacity"    binding:"omitempty,min=0"`
	Notes      string `json:"notes"       binding:"omitempty,max=500"`
}

// UpdateSessionRequest 更新课程实例请求
// 有已签到记录的实例不允许改动时间字段
type UpdateSessionRequest struct {
	CoachID            *string `json:"coach_id"   binding:"omitempty,uuid"`
	Date               *string `json:"date"`
	StartTime          *string `json:"start_time"`
	EndTime            *string `json:"end_time"`
	Capacity           *int    `json:"capacity"   binding:"omitempty,min=0"`
	Notes              *string `json:"notes"      binding:"omitempty,max=500"`
	ManualCheckinCount *int    `json:"manual_checkin_count" binding:"omitempty,min=0"`
}

// ── 响应 ──

// SessionResponse 课程实例响应
type SessionResponse struct {
	ID                 string         `json:"id"`
	PatternID          *string        `json:"pattern_id,omitempty"`
	Coach              *StaffBrief    `json:"coach,omitempty"`
	Template           *TemplateBrief `json:"template,omitempty"`
	Date               string         `json:"date"`
	StartsAt           string         `json:"starts_at"`
	EndsAt             string         `json:"ends_at"`
	Capacity           int            `json:"capacity"`
	BookedCount        int            `json:"booked_count"`
	ManualCheckinCount int            `json:"manual_checkin_count"`
	Notes              string         `json:"notes,omitempty"`
	Occupancy          *OccupancyResponse `json:"occupancy,omitempty"`
	CreatedAt          string         `json:"created_at"`
	UpdatedAt          string         `json:"updated_at"`
}

// OccupancyResponse 实例满员度分类响应
// is_full 是准入控制唯一依据；tier 仅用于前端着色
type OccupancyResponse struct {
	Tier        string `json:"tier"` // high | medium | low
	IsFull      bool   `json:"is_full"`
	BookedCount int    `json:"booked_count"`
	Capacity    int    `json:"capacity"` // 0 = 不限
}
