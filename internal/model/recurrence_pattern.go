package model

import "time"

// RecurrencePattern 周期排课规则表 — 对应 recurrence_patterns
//
// 声明式的每周重复规则：指定教练/员工在哪些星期、什么时刻开课，
// 有效期内由展开器物化为具体的 SessionInstance。
// StartTime 为场馆本地挂钟时间（"HH:MM"）；DurationMinutes 在创建时
// 从课程模板解析一次后锁定，后续模板变更不回溯影响已生成实例。
type RecurrencePattern struct {
	PatternID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"pattern_id"`
	CoachID         string    `gorm:"type:uuid;not null"                             json:"coach_id"`
	TemplateID      string    `gorm:"type:uuid;not null"                             json:"template_id"`
	Weekdays        IntArray  `gorm:"type:int[];not null"                            json:"weekdays"` // ISO 1=周一 … 7=周日
	StartTime       string    `gorm:"type:varchar(5);not null"                       json:"start_time"`
	DurationMinutes int       `gorm:"type:smallint;not null"                         json:"duration_minutes"`
	ValidFrom       time.Time `gorm:"type:date;not null"                             json:"valid_from"`
	ValidUntil      time.Time `gorm:"type:date;not null"                             json:"valid_until"`
	VersionedModel

	// 关联
	Coach    *Staff         `gorm:"foreignKey:CoachID;references:StaffID"       json:"coach,omitempty"`
	Template *ClassTemplate `gorm:"foreignKey:TemplateID;references:TemplateID" json:"template,omitempty"`
}

func (RecurrencePattern) TableName() string { return "recurrence_patterns" }
