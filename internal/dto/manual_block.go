package dto

// ── 手动占用时段模块 DTO ──

// CreateManualBlockRequest 创建手动占用时段请求
type CreateManualBlockRequest struct {
	StaffID   string `json:"staff_id"   binding:"required,uuid"`
	Title     string `json:"title"      binding:"required,min=1,max=200"`
	Date      string `json:"date"       binding:"required"` // "2006-01-02"
	StartTime string `json:"start_time" binding:"required"` // "HH:MM"
	EndTime   string `json:"end_time"   binding:"required"`
}

// ImportBlocksRequest ICS 导入请求（文件内容走 multipart，或 url 拉取）
type ImportBlocksRequest struct {
	StaffID string `form:"staff_id" binding:"required,uuid"`
	URL     string `form:"url"      binding:"omitempty,url"`
	From    string `form:"from"     binding:"required"` // 导入窗口 "2006-01-02"
	Until   string `form:"until"    binding:"required"`
}

// ── 响应 ──

// ManualBlockResponse 手动占用时段响应
type ManualBlockResponse struct {
	ID        string      `json:"id"`
	Staff     *StaffBrief `json:"staff,omitempty"`
	Title     string      `json:"title"`
	StartsAt  string      `json:"starts_at"`
	EndsAt    string      `json:"ends_at"`
	Source    string      `json:"source"`
	CreatedAt string      `json:"created_at"`
}

// ImportBlocksResponse ICS 导入结果
type ImportBlocksResponse struct {
	ImportedCount int                   `json:"imported_count"`
	Blocks        []ManualBlockResponse `json:"blocks"`
}
