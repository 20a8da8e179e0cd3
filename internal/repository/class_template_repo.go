package repository

import (
	"context"

	"gorm.io/gorm"

	"bornfit/backend/internal/model"
)

// ClassTemplateRepository 课程模板数据访问接口
type ClassTemplateRepository interface {
	GetByID(ctx context.Context, id string) (*model.ClassTemplate, error)
	List(ctx context.Context, activeOnly bool) ([]model.ClassTemplate, error)
}

type classTemplateRepo struct {
	db *gorm.DB
}

// NewClassTemplateRepo 创建 ClassTemplateRepository 实例
func NewClassTemplateRepo(db *gorm.DB) ClassTemplateRepository {
	return &classTemplateRepo{db: db}
}

func (r *classTemplateRepo) GetByID(ctx context.Context, id string) (*model.ClassTemplate, error) {
	var template model.ClassTemplate
	err := r.db.WithContext(ctx).Where("template_id = ?", id).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *classTemplateRepo) List(ctx context.Context, activeOnly bool) ([]model.ClassTemplate, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var templates []model.ClassTemplate
	err := query.Find(&templates).Error
	return templates, err
}
