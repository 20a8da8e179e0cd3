package dto

// ── 周期规则模块 DTO ──

// CreatePatternRequest 创建周期排课规则请求
// duration_minutes 缺省时取课程模板的默认时长
type CreatePatternRequest struct {
	CoachID         string `json:"coach_id"         binding:"required,uuid"`
	TemplateID      string `json:"template_id"      binding:"required,uuid"`
	Weekdays        []int  `json:"weekdays"         binding:"omitempty,dive,min=1,max=7"`
	StartTime       string `json:"start_time"       binding:"required"` // "HH:MM"
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1"`
	ValidFrom       string `json:"valid_from"       binding:"required"` // "2006-01-02"
	ValidUntil      string `json:"valid_until"      binding:"required"`
}

// UpdatePatternRequest 更新周期排课规则请求
// version 用于乐观锁校验，防止并发编辑互相覆盖
type UpdatePatternRequest struct {
	CoachID         *string `json:"coach_id"         binding:"omitempty,uuid"`
	TemplateID      *string `json:"template_id"      binding:"omitempty,uuid"`
	Weekdays        []int   `json:"weekdays"         binding:"omitempty,dive,min=1,max=7"`
	StartTime       *string `json:"start_time"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1"`
	ValidFrom       *string `json:"valid_from"`
	ValidUntil      *string `json:"valid_until"`
	Version         int     `json:"version"          binding:"required,min=1"`
}

// PatternListRequest 规则列表查询参数
type PatternListRequest struct {
	CoachID string `form:"coach_id" binding:"omitempty,uuid"`
	PaginationRequest
}

// ── 响应 ──

// PatternResponse 周期规则响应
type PatternResponse struct {
	ID              string         `json:"id"`
	CoachID         string         `json:"coach_id"`
	Coach           *StaffBrief    `json:"coach,omitempty"`
	TemplateID      string         `json:"template_id"`
	Template        *TemplateBrief `json:"template,omitempty"`
	Weekdays        []int          `json:"weekdays"`
	StartTime       string         `json:"start_time"`
	DurationMinutes int            `json:"duration_minutes"`
	ValidFrom       string         `json:"valid_from"`
	ValidUntil      string         `json:"valid_until"`
	Version         int            `json:"version"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

// ExpandResult 规则展开（对账）结果
type ExpandResult struct {
	Created  int `json:"created"`
	Deleted  int `json:"deleted"`
	Retained int `json:"retained"`
}

// PatternMutationResponse 创建/更新规则响应：规则本体 + 本次展开统计
type PatternMutationResponse struct {
	Pattern *PatternResponse `json:"pattern"`
	Expand  *ExpandResult    `json:"expand"`
}
