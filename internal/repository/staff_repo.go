package repository

import (
	"context"

	"gorm.io/gorm"

	"bornfit/backend/internal/model"
)

// StaffRepository 员工数据访问接口
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*model.Staff, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Staff, error)
}

type staffRepo struct {
	db *gorm.DB
}

// NewStaffRepo 创建 StaffRepository 实例
func NewStaffRepo(db *gorm.DB) StaffRepository {
	return &staffRepo{db: db}
}

func (r *staffRepo) GetByID(ctx context.Context, id string) (*model.Staff, error) {
	var staff model.Staff
	err := r.db.WithContext(ctx).Where("staff_id = ?", id).First(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Staff, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var staff []model.Staff
	err := r.db.WithContext(ctx).Where("staff_id IN ?", ids).Find(&staff).Error
	return staff, err
}
