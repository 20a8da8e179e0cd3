package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bornfit/backend/internal/model"
)

// ReconcileChanges 一次规则对账要落库的全部变更。
// ApplyReconciliation 必须把它们放进同一个事务：
// 部分应用（删了旧实例但没建新实例）绝不能被外部观察到。
type ReconcileChanges struct {
	// Create 新生成的实例
	Create []model.SessionInstance
	// RefreshWindow 保留的未来实例：时间窗口与非时间字段都按新规则刷新
	RefreshWindow []model.SessionInstance
	// RefreshMeta 历史实例：只刷新非时间字段，时间一律不动
	RefreshMeta []model.SessionInstance
	// Remove 要硬删除的未来实例 ID；其未签到的预约级联取消
	Remove []string
	// Detach 与规则解绑（pattern_id 置空）的实例 ID，用于规则删除时保留历史
	Detach []string
}

// SessionInstanceRepository 课程实例数据访问接口
type SessionInstanceRepository interface {
	Create(ctx context.Context, session *model.SessionInstance) error
	GetByID(ctx context.Context, id string) (*model.SessionInstance, error)
	ListByPattern(ctx context.Context, patternID string) ([]model.SessionInstance, error)
	ListByWindow(ctx context.Context, start, end time.Time, coachIDs []string) ([]model.SessionInstance, error)
	Update(ctx context.Context, session *model.SessionInstance) error
	// ApplyReconciliation 在单个事务中应用对账变更，全部成功或全部回滚
	ApplyReconciliation(ctx context.Context, changes *ReconcileChanges) error
}

type sessionInstanceRepo struct {
	db *gorm.DB
}

// NewSessionInstanceRepo 创建 SessionInstanceRepository 实例
func NewSessionInstanceRepo(db *gorm.DB) SessionInstanceRepository {
	return &sessionInstanceRepo{db: db}
}

func (r *sessionInstanceRepo) Create(ctx context.Context, session *model.SessionInstance) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionInstanceRepo) GetByID(ctx context.Context, id string) (*model.SessionInstance, error) {
	var session model.SessionInstance
	err := r.db.WithContext(ctx).
		Preload("Coach").
		Preload("Template").
		Where("session_id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionInstanceRepo) ListByPattern(ctx context.Context, patternID string) ([]model.SessionInstance, error) {
	var sessions []model.SessionInstance
	err := r.db.WithContext(ctx).
		Where("pattern_id = ?", patternID).
		Order("starts_at ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionInstanceRepo) ListByWindow(ctx context.Context, start, end time.Time, coachIDs []string) ([]model.SessionInstance, error) {
	query := r.db.WithContext(ctx).
		Preload("Coach").
		Preload("Template").
		Where("starts_at <= ? AND ends_at >= ?", end, start)
	if len(coachIDs) > 0 {
		query = query.Where("coach_id IN ?", coachIDs)
	}

	var sessions []model.SessionInstance
	err := query.Order("starts_at ASC").Find(&sessions).Error
	return sessions, err
}

func (r *sessionInstanceRepo) Update(ctx context.Context, session *model.SessionInstance) error {
	return r.db.WithContext(ctx).
		Model(session).
		Select("coach_id", "date", "starts_at", "ends_at", "capacity", "notes", "manual_checkin_count", "updated_by").
		Updates(session).Error
}

func (r *sessionInstanceRepo) ApplyReconciliation(ctx context.Context, changes *ReconcileChanges) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 被删实例的未签到预约级联取消；已签到的实例不会出现在 Remove 中
		if len(changes.Remove) > 0 {
			if err := tx.Model(&model.AttendanceRecord{}).
				Where("session_id IN ? AND status = ?", changes.Remove, model.AttendanceBooked).
				Update("status", model.AttendanceCancelled).Error; err != nil {
				return err
			}
			if err := tx.Where("session_id IN ?", changes.Remove).
				Delete(&model.SessionInstance{}).Error; err != nil {
				return err
			}
		}

		// 2. 与规则解绑（规则删除时保留历史实例为单次课）
		if len(changes.Detach) > 0 {
			if err := tx.Model(&model.SessionInstance{}).
				Where("session_id IN ?", changes.Detach).
				Update("pattern_id", nil).Error; err != nil {
				return err
			}
		}

		// 3. 保留的未来实例：时间窗口随新规则刷新
		for i := range changes.RefreshWindow {
			s := &changes.RefreshWindow[i]
			if err := tx.Model(&model.SessionInstance{}).
				Where("session_id = ?", s.SessionID).
				Updates(map[string]interface{}{
					"coach_id":    s.CoachID,
					"template_id": s.TemplateID,
					"date":        s.Date,
					"starts_at":   s.StartsAt,
					"ends_at":     s.EndsAt,
					"capacity":    s.Capacity,
				}).Error; err != nil {
				return err
			}
		}

		// 4. 历史实例：只动非时间字段
		for i := range changes.RefreshMeta {
			s := &changes.RefreshMeta[i]
			if err := tx.Model(&model.SessionInstance{}).
				Where("session_id = ?", s.SessionID).
				Updates(map[string]interface{}{
					"coach_id":    s.CoachID,
					"template_id": s.TemplateID,
					"capacity":    s.Capacity,
				}).Error; err != nil {
				return err
			}
		}

		// 5. 批量创建新实例
		if len(changes.Create) > 0 {
			if err := tx.Create(&changes.Create).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
