package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Pattern       PatternRepository
	Session       SessionInstanceRepository
	Attendance    AttendanceRepository
	ManualBlock   ManualBlockRepository
	PTBooking     PTBookingRepository
	ClassTemplate ClassTemplateRepository
	Staff         StaffRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Pattern:       NewPatternRepo(db),
		Session:       NewSessionInstanceRepo(db),
		Attendance:    NewAttendanceRepo(db),
		ManualBlock:   NewManualBlockRepo(db),
		PTBooking:     NewPTBookingRepo(db),
		ClassTemplate: NewClassTemplateRepo(db),
		Staff:         NewStaffRepo(db),
	}
}
