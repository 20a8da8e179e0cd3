package dto

import "time"

// ── 聚合日历模块 DTO ──

// 日历条目来源类型
const (
	SourceClass       = "class"
	SourcePTSession   = "pt_session"
	SourceManualBlock = "manual_block"
)

// CalendarRequest 日历查询参数
type CalendarRequest struct {
	Anchor      string   `form:"anchor"       binding:"required"`                                 // "2006-01-02"
	Granularity string   `form:"granularity"  binding:"required,oneof=day week month"`
	OwnerIDs    []string `form:"owner_ids"    binding:"omitempty,dive,uuid"`
	SourceTypes []string `form:"source_types" binding:"omitempty,dive,oneof=class pt_session manual_block"`
}

// ScheduleEntry 统一日历条目投影（只读，按需计算，不落库）
type ScheduleEntry struct {
	SourceType string    `json:"source_type"` // class | pt_session | manual_block
	SourceID   string    `json:"source_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Title      string    `json:"title"`
	OwnerID    string    `json:"owner_id"`
	ColorCode  string    `json:"color_code,omitempty"`
}

// CalendarResponse 聚合日历响应
// active_buckets 为空表示窗口内无任何条目，渲染层不得回退为全天网格
type CalendarResponse struct {
	WindowStart   string          `json:"window_start"`
	WindowEnd     string          `json:"window_end"`
	Granularity   string          `json:"granularity"`
	Entries       []ScheduleEntry `json:"entries"`
	ActiveBuckets []string        `json:"active_buckets"` // 如 ["09:00","14:00"]
}
