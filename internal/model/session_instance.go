package model

import "time"

// SessionInstance 课程实例表 — 对应 session_instances
//
// 一次具体的、可预约的团课场次。由展开器按规则生成（PatternID 非空），
// 或由前台直接创建单次课（PatternID 为空）。
// StartsAt/EndsAt 在生成时按规则的 concreteWindow 计算后固化；
// 规则变更时历史实例（已开始的）不做时间上的改动，保证签到记录有效。
// Capacity 为 0 表示不限容量。
type SessionInstance struct {
	SessionID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	PatternID          *string   `gorm:"type:uuid;index"                                json:"pattern_id,omitempty"`
	TemplateID         string    `gorm:"type:uuid;not null"                             json:"template_id"`
	CoachID            string    `gorm:"type:uuid;not null"                             json:"coach_id"`
	Date               time.Time `gorm:"type:date;not null;index"                       json:"date"`
	StartsAt           time.Time `gorm:"not null;index"                                 json:"starts_at"`
	EndsAt             time.Time `gorm:"not null"                                       json:"ends_at"`
	Capacity           int       `gorm:"type:smallint;not null;default:0"               json:"capacity"`
	Notes              string    `gorm:"type:varchar(500)"                              json:"notes,omitempty"`
	ManualCheckinCount int       `gorm:"type:smallint;not null;default:0"               json:"manual_checkin_count"`
	BaseModel

	// 关联
	Pattern  *RecurrencePattern `gorm:"foreignKey:PatternID;references:PatternID"   json:"pattern,omitempty"`
	Coach    *Staff             `gorm:"foreignKey:CoachID;references:StaffID"       json:"coach,omitempty"`
	Template *ClassTemplate     `gorm:"foreignKey:TemplateID;references:TemplateID" json:"template,omitempty"`
}

func (SessionInstance) TableName() string { return "session_instances" }

// UnlimitedCapacity 容量哨兵值：0 表示不限人数
const UnlimitedCapacity = 0
