package model

import "time"

// 预约/签到状态
const (
	AttendanceBooked    = "booked"
	AttendanceCheckedIn = "checked_in"
	AttendanceCancelled = "cancelled"
)

// AttendanceRecord 预约签到记录表 — 对应 attendance_records
//
// 多对一挂在 SessionInstance 下。不变量：单实例非取消记录数
// 不得超过实例容量（容量为不限哨兵时除外），由预约写入路径
// 在行锁下强制执行。
type AttendanceRecord struct {
	AttendanceID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	SessionID    string     `gorm:"type:uuid;not null;index"                       json:"session_id"`
	MemberID     string     `gorm:"type:uuid;not null;index"                       json:"member_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'booked'"     json:"status"` // booked | checked_in | cancelled
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	BaseModel

	// 关联
	Session *SessionInstance `gorm:"foreignKey:SessionID;references:SessionID" json:"session,omitempty"`
}

func (AttendanceRecord) TableName() string { return "attendance_records" }

// IsActive 非取消记录占用名额
func (r *AttendanceRecord) IsActive() bool {
	return r.Status != AttendanceCancelled
}
