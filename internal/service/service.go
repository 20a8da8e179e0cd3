package service

import (
	"time"

	"go.uber.org/zap"

	"bornfit/backend/internal/repository"
	pkgredis "bornfit/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Pattern     PatternService
	Session     SessionService
	Booking     BookingService
	Occupancy   OccupancyService
	Calendar    CalendarService
	ManualBlock ManualBlockService
}

// NewService 创建 Service 聚合。
// rdb 可为 nil：规则对账退化为仅依赖乐观锁版本号。
func NewService(
	repo *repository.Repository,
	rdb *pkgredis.Client,
	clock Clock,
	loc *time.Location,
	logger *zap.Logger,
) *Service {
	return &Service{
		Pattern:     NewPatternService(repo, rdb, clock, loc, logger),
		Session:     NewSessionService(repo, clock, loc, logger),
		Booking:     NewBookingService(repo, clock, logger),
		Occupancy:   NewOccupancyService(repo, logger),
		Calendar:    NewCalendarService(repo, loc, logger),
		ManualBlock: NewManualBlockService(repo, loc, logger),
	}
}
