package repository

import (
	"context"

	"gorm.io/gorm"

	"bornfit/backend/internal/model"
	pkgerrors "bornfit/backend/pkg/errors"
)

// PatternRepository 周期规则数据访问接口
type PatternRepository interface {
	Create(ctx context.Context, pattern *model.RecurrencePattern) error
	GetByID(ctx context.Context, id string) (*model.RecurrencePattern, error)
	List(ctx context.Context, coachID string, offset, limit int) ([]model.RecurrencePattern, int64, error)
	// Update 带乐观锁版本校验：version 不匹配时返回 pkg/errors.ErrOptimisticLock
	Update(ctx context.Context, pattern *model.RecurrencePattern) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type patternRepo struct {
	db *gorm.DB
}

// NewPatternRepo 创建 PatternRepository 实例
func NewPatternRepo(db *gorm.DB) PatternRepository {
	return &patternRepo{db: db}
}

func (r *patternRepo) Create(ctx context.Context, pattern *model.RecurrencePattern) error {
	return r.db.WithContext(ctx).Create(pattern).Error
}

func (r *patternRepo) GetByID(ctx context.Context, id string) (*model.RecurrencePattern, error) {
	var pattern model.RecurrencePattern
	err := r.db.WithContext(ctx).
		Preload("Coach").
		Preload("Template").
		Where("pattern_id = ?", id).
		First(&pattern).Error
	if err != nil {
		return nil, err
	}
	return &pattern, nil
}

func (r *patternRepo) List(ctx context.Context, coachID string, offset, limit int) ([]model.RecurrencePattern, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.RecurrencePattern{})
	if coachID != "" {
		query = query.Where("coach_id = ?", coachID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var patterns []model.RecurrencePattern
	err := query.
		Preload("Coach").
		Preload("Template").
		Order("valid_from ASC, created_at ASC").
		Offset(offset).Limit(limit).
		Find(&patterns).Error
	if err != nil {
		return nil, 0, err
	}
	return patterns, total, nil
}

func (r *patternRepo) Update(ctx context.Context, pattern *model.RecurrencePattern) error {
	oldVersion := pattern.Version
	result := r.db.WithContext(ctx).
		Model(pattern).
		Where("pattern_id = ? AND version = ?", pattern.PatternID, oldVersion).
		Updates(map[string]interface{}{
			"coach_id":         pattern.CoachID,
			"template_id":      pattern.TemplateID,
			"weekdays":         pattern.Weekdays,
			"start_time":       pattern.StartTime,
			"duration_minutes": pattern.DurationMinutes,
			"valid_from":       pattern.ValidFrom,
			"valid_until":      pattern.ValidUntil,
			"updated_by":       pattern.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	pattern.Version = oldVersion + 1
	return nil
}

func (r *patternRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.RecurrencePattern{}).
			Where("pattern_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		// 软删除，保留审计
		return tx.Where("pattern_id = ?", id).Delete(&model.RecurrencePattern{}).Error
	})
}
