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
)

// ── 课程实例模块业务错误 ──

var (
	ErrSessionNotFound     = errors.New("课程实例不存在")
	ErrSessionTimeInvalid  = errors.New("课程结束时间必须晚于开始时间")
	ErrSessionHasCheckins  = errors.New("实例已有签到记录，不能改动时间")
	ErrSessionPatternOwned = errors.New("规则生成的实例请通过规则编辑调整时间")
)

// SessionService 课程实例业务接口。
// 单次课在这里直接创建（不挂规则）；规则生成的实例只读其非时间字段。
type SessionService interface {
	Create(ctx context.Context, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SessionResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateSessionRequest, callerID string) (*dto.SessionResponse, error)
	Delete(ctx context.Context, id string) error
}

type sessionService struct {
	repo   *repository.Repository
	clock  Clock
	loc    *time.Location
	logger *zap.Logger
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(repo *repository.Repository, clock Clock, loc *time.Location, logger *zap.Logger) SessionService {
	return &sessionService{repo: repo, clock: clock, loc: loc, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *sessionService) Create(ctx context.Context, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error) {
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

	date, err := parseCivilDate(req.Date, s.loc)
	if err != nil {
		return nil, err
	}
	startMin, err := parseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := parseClock(req.EndTime)
	if err != nil {
		return nil, err
	}
	if endMin <= startMin {
		return nil, ErrSessionTimeInvalid
	}

	capacity := template.Capacity
	if req.Capacity != nil {
		capacity = *req.Capacity
	}

	y, m, d := date.Date()
	startsAt := time.Date(y, m, d, startMin/60, startMin%60, 0, 0, s.loc)
	endsAt := time.Date(y, m, d, endMin/60, endMin%60, 0, 0, s.loc)

	session := &model.SessionInstance{
		TemplateID: req.TemplateID,
		CoachID:    req.CoachID,
		Date:       date,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		Capacity:   capacity,
		Notes:      req.Notes,
	}
	session.CreatedBy = &callerID

	if err := s.repo.Session.Create(ctx, session); err != nil {
		s.logger.Error("创建单次课失败", zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, session.SessionID)
}

// ────────────────────── GetByID ──────────────────────

func (s *sessionService) GetByID(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课程实例失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	active, err := s.repo.Attendance.CountActiveByInstance(ctx, id)
	if err != nil {
		s.logger.Error("统计预约记录失败", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	return s.toSessionResponse(session, int(active)), nil
}

// ────────────────────── Update ──────────────────────

func (s *sessionService) Update(ctx context.Context, id string, req *dto.UpdateSessionRequest, callerID string) (*dto.SessionResponse, error) {
	session, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课程实例失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	wantsTimeChange := req.Date != nil || req.StartTime != nil || req.EndTime != nil
	if wantsTimeChange {
		// 规则生成实例的时间归展开器管
		if session.PatternID != nil {
			return nil, ErrSessionPatternOwned
		}
		checkedIn, err := s.repo.Attendance.CountCheckedInByInstances(ctx, []string{id})
		if err != nil {
			s.logger.Error("统计签到记录失败", zap.String("session_id", id), zap.Error(err))
			return nil, err
		}
		if checkedIn[id] > 0 {
			return nil, ErrSessionHasCheckins
		}
	}

	if req.CoachID != nil {
		session.CoachID = *req.CoachID
	}
	if req.Capacity != nil {
		session.Capacity = *req.Capacity
	}
	if req.Notes != nil {
		session.Notes = *req.Notes
	}
	if req.ManualCheckinCount != nil {
		session.ManualCheckinCount = *req.ManualCheckinCount
	}

	if wantsTimeChange {
		date := session.Date
		if req.Date != nil {
			date, err = parseCivilDate(*req.Date, s.loc)
			if err != nil {
				return nil, err
			}
		}
		startMin := session.StartsAt.In(s.loc).Hour()*60 + session.StartsAt.In(s.loc).Minute()
		endMin := session.EndsAt.In(s.loc).Hour()*60 + session.EndsAt.In(s.loc).Minute()
		if req.StartTime != nil {
			if startMin, err = parseClock(*req.StartTime); err != nil {
				return nil, err
			}
		}
		if req.EndTime != nil {
			if endMin, err = parseClock(*req.EndTime); err != nil {
				return nil, err
			}
		}
		if endMin <= startMin {
			return nil, ErrSessionTimeInvalid
		}
		y, m, d := civilDate(date, s.loc).Date()
		session.Date = civilDate(date, s.loc)
		session.StartsAt = time.Date(y, m, d, startMin/60, startMin%60, 0, 0, s.loc)
		session.EndsAt = time.Date(y, m, d, endMin/60, endMin%60, 0, 0, s.loc)
	}

	session.UpdatedBy = &callerID

	if err := s.repo.Session.Update(ctx, session); err != nil {
		s.logger.Error("更新课程实例失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

// Delete 删除单次课：已签到的实例不可删，未签到预约级联取消
func (s *sessionService) Delete(ctx context.Context, id string) error {
	session, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		s.logger.Error("查询课程实例失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if session.PatternID != nil {
		return ErrSessionPatternOwned
	}

	checkedIn, err := s.repo.Attendance.CountCheckedInByInstances(ctx, []string{id})
	if err != nil {
		s.logger.Error("统计签到记录失败", zap.String("session_id", id), zap.Error(err))
		return err
	}
	if checkedIn[id] > 0 {
		return ErrSessionHasCheckins
	}

	changes := &repository.ReconcileChanges{Remove: []string{id}}
	if err := s.repo.Session.ApplyReconciliation(ctx, changes); err != nil {
		s.logger.Error("删除课程实例失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *sessionService) toSessionResponse(session *model.SessionInstance, activeCount int) *dto.SessionResponse {
	booked := activeCount + session.ManualCheckinCount
	tier, isFull := classifyOccupancy(booked, session.Capacity)

	resp := &dto.SessionResponse{
		ID:                 session.SessionID,
		PatternID:          session.PatternID,
		Date:               session.Date.In(s.loc).Format(dateLayout),
		StartsAt:           session.StartsAt.In(s.loc).Format(time.RFC3339),
		EndsAt:             session.EndsAt.In(s.loc).Format(time.RFC3339),
		Capacity:           session.Capacity,
		BookedCount:        booked,
		ManualCheckinCount: session.ManualCheckinCount,
		Notes:              session.Notes,
		Occupancy: &dto.OccupancyResponse{
			Tier:        tier,
			IsFull:      isFull,
			BookedCount: booked,
			Capacity:    session.Capacity,
		},
		CreatedAt: session.CreatedAt.Format(time.RFC3339),
		UpdatedAt: session.UpdatedAt.Format(time.RFC3339),
	}
	if session.Coach != nil {
		resp.Coach = &dto.StaffBrief{
			ID:        session.Coach.StaffID,
			Name:      session.Coach.Name,
			Role:      session.Coach.Role,
			ColorCode: session.Coach.ColorCode,
		}
	}
	if session.Template != nil {
		resp.Template = &dto.TemplateBrief{
			ID:              session.Template.TemplateID,
			Name:            session.Template.Name,
			Capacity:        session.Template.Capacity,
			DurationMinutes: session.Template.DurationMinutes,
			ColorCode:       session.Template.ColorCode,
		}
	}
	return resp
}
