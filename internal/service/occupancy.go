package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bornfit/backend/internal/dto"
	"bornfit/backend/internal/repository"
)

// ── 满员度分类 ──

// 满员度档位，仅用于前端着色；准入控制只看 isFull
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

const (
	tierHighRatio   = 0.9
	tierMediumRatio = 0.7
)

// classifyOccupancy 按非取消人数与容量计算档位与是否满员。
// 容量为不限哨兵（0）时比率无定义，档位恒为 low 且永不满员。
func classifyOccupancy(booked, capacity int) (string, bool) {
	if capacity <= 0 {
		return TierLow, false
	}

	isFull := booked >= capacity
	ratio := float64(booked) / float64(capacity)

	switch {
	case ratio >= tierHighRatio:
		return TierHigh, isFull
	case ratio >= tierMediumRatio:
		return TierMedium, isFull
	default:
		return TierLow, isFull
	}
}

// OccupancyService 满员度分类业务接口
type OccupancyService interface {
	Classify(ctx context.Context, sessionID string) (*dto.OccupancyResponse, error)
}

type occupancyService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewOccupancyService 创建 OccupancyService 实例
func NewOccupancyService(repo *repository.Repository, logger *zap.Logger) OccupancyService {
	return &occupancyService{repo: repo, logger: logger}
}

func (s *occupancyService) Classify(ctx context.Context, sessionID string) (*dto.OccupancyResponse, error) {
	session, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课程实例失败", zap.String("id", sessionID), zap.Error(err))
		return nil, err
	}

	active, err := s.repo.Attendance.CountActiveByInstance(ctx, sessionID)
	if err != nil {
		s.logger.Error("统计预约记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	// 前台手工录入的签到数一并占用名额
	booked := int(active) + session.ManualCheckinCount
	tier, isFull := classifyOccupancy(booked, session.Capacity)

	return &dto.OccupancyResponse{
		Tier:        tier,
		IsFull:      isFull,
		BookedCount: booked,
		Capacity:    session.Capacity,
	}, nil
}
