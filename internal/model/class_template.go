package model

// ClassTemplate 课程模板表 — 对应 class_templates
//
// 会籍/课程管理子系统维护的容量与时长模板，本服务按 ID 只读查询。
// 规则创建与展开时从这里解析容量和默认时长。
type ClassTemplate struct {
	TemplateID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"template_id"`
	Name            string `gorm:"type:varchar(100);not null"                     json:"name"`
	Capacity        int    `gorm:"type:smallint;not null;default:0"               json:"capacity"` // 0 = 不限
	DurationMinutes int    `gorm:"type:smallint;not null"                         json:"duration_minutes"`
	ColorCode       string `gorm:"type:varchar(7)"                                json:"color_code,omitempty"`
	IsActive        bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

func (ClassTemplate) TableName() string { return "class_templates" }
