package model

import "time"

// PTBooking 私教预约表 — 对应 pt_bookings
//
// 私教预约的生命周期归私教预约子系统管理；本服务只读，
// 作为聚合日历的 pt_session 来源。
type PTBooking struct {
	BookingID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	CoachID   string    `gorm:"type:uuid;not null;index"                       json:"coach_id"`
	MemberID  string    `gorm:"type:uuid;not null"                             json:"member_id"`
	StartsAt  time.Time `gorm:"not null;index"                                 json:"starts_at"`
	EndsAt    time.Time `gorm:"not null"                                       json:"ends_at"`
	Status    string    `gorm:"type:varchar(20);not null;default:'booked'"     json:"status"` // booked | completed | cancelled
	Notes     string    `gorm:"type:varchar(500)"                              json:"notes,omitempty"`
	BaseModel

	// 关联
	Coach *Staff `gorm:"foreignKey:CoachID;references:StaffID" json:"coach,omitempty"`
}

func (PTBooking) TableName() string { return "pt_bookings" }
