package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bornfit/backend/internal/model"
)

// PTBookingRepository 私教预约只读访问接口
type PTBookingRepository interface {
	ListByWindow(ctx context.Context, start, end time.Time, coachIDs []string) ([]model.PTBooking, error)
}

type ptBookingRepo struct {
	db *gorm.DB
}

// NewPTBookingRepo 创建 PTBookingRepository 实例
func NewPTBookingRepo(db *gorm.DB) PTBookingRepository {
	return &ptBookingRepo{db: db}
}

func (r *ptBookingRepo) ListByWindow(ctx context.Context, start, end time.Time, coachIDs []string) ([]model.PTBooking, error) {
	// 已取消的私教预约不进入聚合日历
	query := r.db.WithContext(ctx).
		Preload("Coach").
		Where("starts_at <= ? AND ends_at >= ?", end, start).
		Where("status <> ?", "cancelled")
	if len(coachIDs) > 0 {
		query = query.Where("coach_id IN ?", coachIDs)
	}

	var bookings []model.PTBooking
	err := query.Order("starts_at ASC").Find(&bookings).Error
	return bookings, err
}
