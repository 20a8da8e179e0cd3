package model

import "time"

// ManualBlock 员工手动占用时段表 — 对应 manual_blocks
//
// 员工日历上的非课程时段（会议、保洁、请假等）。
// 来源为手工录入或 ICS 日历导入；是聚合日历中唯一可直接删除的条目类型。
type ManualBlock struct {
	BlockID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"block_id"`
	StaffID  string    `gorm:"type:uuid;not null;index"                       json:"staff_id"`
	Title    string    `gorm:"type:varchar(200);not null"                     json:"title"`
	StartsAt time.Time `gorm:"not null;index"                                 json:"starts_at"`
	EndsAt   time.Time `gorm:"not null"                                       json:"ends_at"`
	Source   string    `gorm:"type:varchar(20);not null;default:'manual'"     json:"source"` // manual | ics
	BaseModel

	// 关联
	Staff *Staff `gorm:"foreignKey:StaffID;references:StaffID" json:"staff,omitempty"`
}

func (ManualBlock) TableName() string { return "manual_blocks" }
