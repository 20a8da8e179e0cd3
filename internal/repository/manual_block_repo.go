package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bornfit/backend/internal/model"
)

// ManualBlockRepository 手动占用块数据访问接口
type ManualBlockRepository interface {
	Create(ctx context.Context, block *model.ManualBlock) error
	BatchCreate(ctx context.Context, blocks []model.ManualBlock) error
	GetByID(ctx context.Context, id string) (*model.ManualBlock, error)
	Delete(ctx context.Context, id string) error
	ListByWindow(ctx context.Context, start, end time.Time, staffIDs []string) ([]model.ManualBlock, error)
}

type manualBlockRepo struct {
	db *gorm.DB
}

// NewManualBlockRepo 创建 ManualBlockRepository 实例
func NewManualBlockRepo(db *gorm.DB) ManualBlockRepository {
	return &manualBlockRepo{db: db}
}

func (r *manualBlockRepo) Create(ctx context.Context, block *model.ManualBlock) error {
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *manualBlockRepo) BatchCreate(ctx context.Context, blocks []model.ManualBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&blocks).Error
}

func (r *manualBlockRepo) GetByID(ctx context.Context, id string) (*model.ManualBlock, error) {
	var block model.ManualBlock
	err := r.db.WithContext(ctx).Where("block_id = ?", id).First(&block).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *manualBlockRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("block_id = ?", id).
		Delete(&model.ManualBlock{}).Error
}

func (r *manualBlockRepo) ListByWindow(ctx context.Context, start, end time.Time, staffIDs []string) ([]model.ManualBlock, error) {
	query := r.db.WithContext(ctx).
		Preload("Staff").
		Where("starts_at <= ? AND ends_at >= ?", end, start)
	if len(staffIDs) > 0 {
		query = query.Where("staff_id IN ?", staffIDs)
	}

	var blocks []model.ManualBlock
	err := query.Order("starts_at ASC").Find(&blocks).Error
	return blocks, err
}
