package dto

// PaginationRequest 通用分页查询参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 返回页码（默认 1）
func (p *PaginationRequest) GetPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

// GetPageSize 返回每页条数（默认 20）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize < 1 {
		return 20
	}
	return p.PageSize
}

// GetOffset 返回查询偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// StaffBrief 员工简要信息
type StaffBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	ColorCode string `json:"color_code,omitempty"`
}

// TemplateBrief 课程模板简要信息
type TemplateBrief struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Capacity        int    `json:"capacity"`
	DurationMinutes int    `json:"duration_minutes"`
	ColorCode       string `json:"color_code,omitempty"`
}
