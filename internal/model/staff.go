package model

// Staff 员工目录表 — 对应 staff
//
// 账号与人事管理归外部系统，本服务只读取展示名、角色与配色，
// 用于日历条目的归属标注。
type Staff struct {
	StaffID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"staff_id"`
	Name      string `gorm:"type:varchar(100);not null"                     json:"name"`
	Role      string `gorm:"type:varchar(20);not null"                      json:"role"` // coach | front_desk | admin
	ColorCode string `gorm:"type:varchar(7)"                                json:"color_code,omitempty"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

func (Staff) TableName() string { return "staff" }
