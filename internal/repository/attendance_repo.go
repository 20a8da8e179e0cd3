package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bornfit/backend/internal/model"
	pkgerrors "bornfit/backend/pkg/errors"
)

// AttendanceRepository 预约/签到数据访问接口
type AttendanceRepository interface {
	// CreateBooking 对课程实例加行锁后复核容量再写入，
	// 并发超订时返回 pkgerrors.ErrCapacityExceeded
	CreateBooking(ctx context.Context, record *model.AttendanceRecord) error
	GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error)
	GetActiveBySessionAndMember(ctx context.Context, sessionID, memberID string) (*model.AttendanceRecord, error)
	UpdateStatus(ctx context.Context, id, status string, checkedInAt *time.Time) error
	ListByInstance(ctx context.Context, sessionID string) ([]model.AttendanceRecord, error)
	CountActiveByInstance(ctx context.Context, sessionID string) (int64, error)
	CountCheckedInByInstances(ctx context.Context, sessionIDs []string) (map[string]int64, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) CreateBooking(ctx context.Context, record *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 行锁：同一实例的并发预约在此串行化
		var session model.SessionInstance
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", record.SessionID).
			First(&session).Error; err != nil {
			return err
		}

		// 锁内复核容量，容量为 0 表示不限人数
		if session.Capacity != model.UnlimitedCapacity {
			var active int64
			if err := tx.Model(&model.AttendanceRecord{}).
				Where("session_id = ? AND status <> ?", record.SessionID, model.AttendanceCancelled).
				Count(&active).Error; err != nil {
				return err
			}
			if int(active)+session.ManualCheckinCount >= session.Capacity {
				return pkgerrors.ErrCapacityExceeded
			}
		}

		return tx.Create(record).Error
	})
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).Where("attendance_id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) GetActiveBySessionAndMember(ctx context.Context, sessionID, memberID string) (*model.AttendanceRecord, error) {
	var record model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND member_id = ? AND status <> ?",
			sessionID, memberID, model.AttendanceCancelled).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *attendanceRepo) UpdateStatus(ctx context.Context, id, status string, checkedInAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if checkedInAt != nil {
		updates["checked_in_at"] = checkedInAt
	}
	return r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("attendance_id = ?", id).
		Updates(updates).Error
}

func (r *attendanceRepo) ListByInstance(ctx context.Context, sessionID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) CountActiveByInstance(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("session_id = ? AND status <> ?", sessionID, model.AttendanceCancelled).
		Count(&count).Error
	return count, err
}

func (r *attendanceRepo) CountCheckedInByInstances(ctx context.Context, sessionIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}

	type row struct {
		SessionID string
		Count     int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Select("session_id, COUNT(*) AS count").
		Where("session_id IN ? AND status = ?", sessionIDs, model.AttendanceCheckedIn).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		result[r.SessionID] = r.Count
	}
	return result, nil
}
