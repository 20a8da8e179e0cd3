package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bornfit/backend/internal/dto"
	"bornfit/backend/internal/model"
	"bornfit/backend/internal/repository"
	pkgredis "bornfit/backend/pkg/redis"
)

// ── 周期规则模块业务错误 ──

var (
	ErrPatternNotFound  = errors.New("周期规则不存在")
	ErrPatternCoachGone = errors.New("教练不存在或已停用")
	ErrTemplateNotFound = errors.New("课程模板不存在或已停用")
	ErrPatternBusy      = errors.New("该规则正在对账中，请稍后重试")
)

const expandLockTTL = 30 * time.Second

// PatternService 周期排课规则业务接口
type PatternService interface {
	Create(ctx context.Context, req *dto.CreatePatternRequest, callerID string) (*dto.PatternMutationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.PatternResponse, error)
	List(ctx context.Context, req *dto.PatternListRequest) ([]dto.PatternResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdatePatternRequest, callerID string) (*dto.PatternMutationResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// Expand 手工触发一次对账，返回 {created, deleted, retained}
	Expand(ctx context.Context, id string) (*dto.ExpandResult, error)
}

type patternService struct {
	repo   *repository.Repository
	rdb    *pkgredis.Client // 可为 nil，此时仅依赖乐观锁
	clock  Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewPatternService 创建 PatternService 实例
func NewPatternService(repo *repository.Repository, rdb *pkgredis.Client, clock Clock, loc *time.Location, logger *zap.Logger) PatternService {
	return &patternService{repo: repo, rdb: rdb, clock: clock, loc: loc, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *patternService) Create(ctx context.Context, req *dto.CreatePatternRequest, callerID string) (*dto.PatternMutationResponse, error) {
	coach, err := s.repo.Staff.GetByID(ctx, req.CoachID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatternCoachGone
		}
		s.logger.Error("查询教练失败", zap.String("coach_id", req.CoachID), zap.Error(err))
		return nil, err
	}
	if !coach.IsActive {
		return nil, ErrPatternCoachGone
	}

	template, err := s.repo.ClassTemplate.GetByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询课程模板失败", zap.String("template_id", req.TemplateID), zap.Error(err))
		return nil, err
	}
	if !template.IsActive {
		return nil, ErrTemplateNotFound
	}

	validFrom, err := parseCivilDate(req.ValidFrom, s.loc)
	if err != nil {
		return nil, ErrPatternDateInvalid
	}
	validUntil, err := parseCivilDate(req.ValidUntil, s.loc)
	if err != nil {
		return nil, ErrPatternDateInvalid
	}

	// 时长在创建时从模板解析一次后锁入规则，
	// 之后模板变更不影响已生成实例的起止时刻
	duration := req.DurationMinutes
	if duration == 0 {
		duration = template.DurationMinutes
	}

	pattern := &model.RecurrencePattern{
		CoachID:         req.CoachID,
		TemplateID:      req.TemplateID,
		Weekdays:        model.IntArray(req.Weekdays),
		StartTime:       req.StartTime,
		DurationMinutes: duration,
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
	}
	pattern.CreatedBy = &callerID
	pattern.Version = 1

	if err := validatePattern(pattern, civilDate(s.clock.Now(), s.loc)); err != nil {
		return nil, err
	}

	if err := s.repo.Pattern.Create(ctx, pattern); err != nil {
		s.logger.Error("创建周期规则失败", zap.Error(err))
		return nil, err
	}

	result, err := s.reconcile(ctx, pattern, template.Capacity)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Pattern.GetByID(ctx, pattern.PatternID)
	if err != nil {
		s.logger.Error("回读周期规则失败", zap.String("id", pattern.PatternID), zap.Error(err))
		return nil, err
	}

	return &dto.PatternMutationResponse{
		Pattern: s.toPatternResponse(created),
		Expand:  result,
	}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *patternService) GetByID(ctx context.Context, id string) (*dto.PatternResponse, error) {
	pattern, err := s.repo.Pattern.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatternNotFound
		}
		s.logger.Error("查询周期规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toPatternResponse(pattern), nil
}

// ────────────────────── List ──────────────────────

func (s *patternService) List(ctx context.Context, req *dto.PatternListRequest) ([]dto.PatternResponse, int64, error) {
	patterns, total, err := s.repo.Pattern.List(ctx, req.CoachID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出周期规则失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.PatternResponse, 0, len(patterns))
	for i := range patterns {
		result = append(result, *s.toPatternResponse(&patterns[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *patternService) Update(ctx context.Context, id string, req *dto.UpdatePatternRequest, callerID string) (*dto.PatternMutationResponse, error) {
	pattern, err := s.repo.Pattern.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatternNotFound
		}
		s.logger.Error("查询周期规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 请求携带读取时的版本号，落库时 WHERE version = ? 二次校验
	pattern.Version = req.Version

	if req.CoachID != nil {
		coach, err := s.repo.Staff.GetByID(ctx, *req.CoachID)
		if err != nil || !coach.IsActive {
			return nil, ErrPatternCoachGone
		}
		pattern.CoachID = *req.CoachID
	}
	if req.TemplateID != nil {
		pattern.TemplateID = *req.TemplateID
	}
	if req.Weekdays != nil {
		pattern.Weekdays = model.IntArray(req.Weekdays)
	}
	if req.StartTime != nil {
		pattern.StartTime = *req.StartTime
	}
	if req.DurationMinutes != nil {
		pattern.DurationMinutes = *req.DurationMinutes
	}
	if req.ValidFrom != nil {
		d, err := parseCivilDate(*req.ValidFrom, s.loc)
		if err != nil {
			return nil, ErrPatternDateInvalid
		}
		pattern.ValidFrom = d
	}
	if req.ValidUntil != nil {
		d, err := parseCivilDate(*req.ValidUntil, s.loc)
		if err != nil {
			return nil, ErrPatternDateInvalid
		}
		pattern.ValidUntil = d
	}

	template, err := s.repo.ClassTemplate.GetByID(ctx, pattern.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询课程模板失败", zap.String("template_id", pattern.TemplateID), zap.Error(err))
		return nil, err
	}

	if err := validatePattern(pattern, civilDate(s.clock.Now(), s.loc)); err != nil {
		return nil, err
	}

	pattern.UpdatedBy = &callerID

	if err := s.repo.Pattern.Update(ctx, pattern); err != nil {
		// 乐观锁冲突原样上抛，调用方重取后重试
		s.logger.Warn("更新周期规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	result, err := s.reconcile(ctx, pattern, template.Capacity)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Pattern.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("回读周期规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &dto.PatternMutationResponse{
		Pattern: s.toPatternResponse(updated),
		Expand:  result,
	}, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除规则：历史与已签到实例解绑为单次课保留，
// 其余未来实例连同未签到预约一并清除。
func (s *patternService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Pattern.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPatternNotFound
		}
		s.logger.Error("查询周期规则失败", zap.String("id", id), zap.Error(err))
		return err
	}

	release, err := s.lockPattern(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	instances, err := s.repo.Session.ListByPattern(ctx, id)
	if err != nil {
		s.logger.Error("查询规则实例失败", zap.String("pattern_id", id), zap.Error(err))
		return err
	}

	checkedIn, err := s.checkedInCounts(ctx, instances)
	if err != nil {
		return err
	}

	changes := buildDetachPlan(instances, checkedIn, s.clock.Now())
	if err := s.repo.Session.ApplyReconciliation(ctx, changes); err != nil {
		s.logger.Error("删除规则时处置实例失败", zap.String("pattern_id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Pattern.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除周期规则失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("周期规则已删除",
		zap.String("pattern_id", id),
		zap.Int("detached", len(changes.Detach)),
		zap.Int("removed", len(changes.Remove)))
	return nil
}

// ────────────────────── Expand ──────────────────────

func (s *patternService) Expand(ctx context.Context, id string) (*dto.ExpandResult, error) {
	pattern, err := s.repo.Pattern.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatternNotFound
		}
		s.logger.Error("查询周期规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	template, err := s.repo.ClassTemplate.GetByID(ctx, pattern.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	return s.reconcile(ctx, pattern, template.Capacity)
}

// ── 内部辅助方法 ──

// reconcile 在规则级互斥锁内执行一次完整对账
func (s *patternService) reconcile(ctx context.Context, pattern *model.RecurrencePattern, capacity int) (*dto.ExpandResult, error) {
	release, err := s.lockPattern(ctx, pattern.PatternID)
	if err != nil {
		return nil, err
	}
	defer release()

	instances, err := s.repo.Session.ListByPattern(ctx, pattern.PatternID)
	if err != nil {
		s.logger.Error("查询规则实例失败", zap.String("pattern_id", pattern.PatternID), zap.Error(err))
		return nil, err
	}

	checkedIn, err := s.checkedInCounts(ctx, instances)
	if err != nil {
		return nil, err
	}

	plan := buildReconcilePlan(pattern, instances, checkedIn, s.clock.Now(), s.loc, capacity)

	// 未来实例带签到被按历史保留：可恢复降级，只记日志
	for _, sessionID := range plan.degraded {
		s.logger.Warn("未开始的实例已有签到记录，按历史保留",
			zap.String("pattern_id", pattern.PatternID),
			zap.String("session_id", sessionID))
	}

	if err := s.repo.Session.ApplyReconciliation(ctx, &plan.changes); err != nil {
		s.logger.Error("规则对账落库失败", zap.String("pattern_id", pattern.PatternID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("规则对账完成",
		zap.String("pattern_id", pattern.PatternID),
		zap.Int("created", plan.created),
		zap.Int("deleted", plan.deleted),
		zap.Int("retained", plan.retained))

	return &dto.ExpandResult{
		Created:  plan.created,
		Deleted:  plan.deleted,
		Retained: plan.retained,
	}, nil
}

// lockPattern 获取规则级互斥锁。
// Redis 未配置或不可用时退化为仅依赖乐观锁版本号，不阻断请求。
func (s *patternService) lockPattern(ctx context.Context, id string) (func(), error) {
	if s.rdb == nil {
		return func() {}, nil
	}
	key := "pattern:" + id
	ok, err := s.rdb.AcquireLock(ctx, key, expandLockTTL)
	if err != nil {
		s.logger.Warn("获取规则锁失败，退化为乐观锁", zap.String("pattern_id", id), zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, ErrPatternBusy
	}
	return func() {
		if err := s.rdb.ReleaseLock(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("释放规则锁失败", zap.String("pattern_id", id), zap.Error(err))
		}
	}, nil
}

func (s *patternService) checkedInCounts(ctx context.Context, instances []model.SessionInstance) (map[string]int64, error) {
	ids := make([]string, 0, len(instances))
	for i := range instances {
		ids = append(ids, instances[i].SessionID)
	}
	counts, err := s.repo.Attendance.CountCheckedInByInstances(ctx, ids)
	if err != nil {
		s.logger.Error("统计签到记录失败", zap.Error(err))
		return nil, err
	}
	return counts, nil
}

func (s *patternService) toPatternResponse(p *model.RecurrencePattern) *dto.PatternResponse {
	resp := &dto.PatternResponse{
		ID:              p.PatternID,
		CoachID:         p.CoachID,
		TemplateID:      p.TemplateID,
		Weekdays:        []int(p.Weekdays),
		StartTime:       p.StartTime,
		DurationMinutes: p.DurationMinutes,
		ValidFrom:       p.ValidFrom.In(s.loc).Format(dateLayout),
		ValidUntil:      p.ValidUntil.In(s.loc).Format(dateLayout),
		Version:         p.Version,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
	if p.Coach != nil {
		resp.Coach = &dto.StaffBrief{
			ID:        p.Coach.StaffID,
			Name:      p.Coach.Name,
			Role:      p.Coach.Role,
			ColorCode: p.Coach.ColorCode,
		}
	}
	if p.Template != nil {
		resp.Template = &dto.TemplateBrief{
			ID:              p.Template.TemplateID,
			Name:            p.Template.Name,
			Capacity:        p.Template.Capacity,
			DurationMinutes: p.Template.DurationMinutes,
			ColorCode:       p.Template.ColorCode,
		}
	}
	return resp
}
