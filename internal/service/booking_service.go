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
	pkgerrors "bornfit/backend/pkg/errors"
)

// ── 预约签到模块业务错误 ──

var (
	ErrBookingNotFound    = errors.New("预约记录不存在")
	ErrSessionFull        = errors.New("课程名额已满")
	ErrAlreadyBooked      = errors.New("已预约该课程，请勿重复预约")
	ErrSessionEnded       = errors.New("课程已结束，无法预约")
	ErrAlreadyCheckedIn   = errors.New("已签到的预约不能取消")
	ErrBookingIsCancelled = errors.New("预约已取消")
)

// BookingService 预约/签到业务接口
type BookingService interface {
	Book(ctx context.Context, sessionID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	Cancel(ctx context.Context, bookingID string) error
	CheckIn(ctx context.Context, sessionID string, req *dto.CheckinRequest) (*dto.BookingResponse, error)
	ListBySession(ctx context.Context, sessionID string) ([]dto.BookingResponse, error)
}

type bookingService struct {
	repo   *repository.Repository
	clock  Clock
	logger *zap.Logger
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(repo *repository.Repository, clock Clock, logger *zap.Logger) BookingService {
	return &bookingService{repo: repo, clock: clock, logger: logger}
}

// ────────────────────── Book ──────────────────────

// Book 会员预约课程。
// 容量校验在仓储层行锁内执行；即使调用方渲染时看到未满，
// 写入时复核仍是唯一权威判定。
func (s *bookingService) Book(ctx context.Context, sessionID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课程实例失败", zap.String("id", sessionID), zap.Error(err))
		return nil, err
	}

	if !session.EndsAt.After(s.clock.Now()) {
		return nil, ErrSessionEnded
	}

	// 同一会员同一实例只允许一条有效记录
	if _, err := s.repo.Attendance.GetActiveBySessionAndMember(ctx, sessionID, req.MemberID); err == nil {
		return nil, ErrAlreadyBooked
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询既有预约失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	record := &model.AttendanceRecord{
		SessionID: sessionID,
		MemberID:  req.MemberID,
		Status:    model.AttendanceBooked,
	}

	if err := s.repo.Attendance.CreateBooking(ctx, record); err != nil {
		if errors.Is(err, pkgerrors.ErrCapacityExceeded) {
			return nil, ErrSessionFull
		}
		s.logger.Error("创建预约失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	return s.toBookingResponse(record), nil
}

// ────────────────────── Cancel ──────────────────────

func (s *bookingService) Cancel(ctx context.Context, bookingID string) error {
	record, err := s.repo.Attendance.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		s.logger.Error("查询预约记录失败", zap.String("id", bookingID), zap.Error(err))
		return err
	}

	switch record.Status {
	case model.AttendanceCheckedIn:
		return ErrAlreadyCheckedIn
	case model.AttendanceCancelled:
		return ErrBookingIsCancelled
	}

	if err := s.repo.Attendance.UpdateStatus(ctx, bookingID, model.AttendanceCancelled, nil); err != nil {
		s.logger.Error("取消预约失败", zap.String("id", bookingID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── CheckIn ──────────────────────

// CheckIn 扫码签到：将会员在该实例下的有效预约置为已签到
func (s *bookingService) CheckIn(ctx context.Context, sessionID string, req *dto.CheckinRequest) (*dto.BookingResponse, error) {
	record, err := s.repo.Attendance.GetActiveBySessionAndMember(ctx, sessionID, req.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("查询预约记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	if record.Status == model.AttendanceCheckedIn {
		// 重复扫码幂等返回
		return s.toBookingResponse(record), nil
	}

	now := s.clock.Now()
	if err := s.repo.Attendance.UpdateStatus(ctx, record.AttendanceID, model.AttendanceCheckedIn, &now); err != nil {
		s.logger.Error("签到失败", zap.String("id", record.AttendanceID), zap.Error(err))
		return nil, err
	}

	record.Status = model.AttendanceCheckedIn
	record.CheckedInAt = &now
	return s.toBookingResponse(record), nil
}

// ────────────────────── ListBySession ──────────────────────

func (s *bookingService) ListBySession(ctx context.Context, sessionID string) ([]dto.BookingResponse, error) {
	records, err := s.repo.Attendance.ListByInstance(ctx, sessionID)
	if err != nil {
		s.logger.Error("列出预约记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.BookingResponse, 0, len(records))
	for i := range records {
		result = append(result, *s.toBookingResponse(&records[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *bookingService) toBookingResponse(r *model.AttendanceRecord) *dto.BookingResponse {
	resp := &dto.BookingResponse{
		ID:        r.AttendanceID,
		SessionID: r.SessionID,
		MemberID:  r.MemberID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
	if r.CheckedInAt != nil {
		t := r.CheckedInAt.Format(time.RFC3339)
		resp.CheckedInAt = &t
	}
	return resp
}
