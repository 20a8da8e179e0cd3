package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bornfit/backend/internal/dto"
	"bornfit/backend/internal/repository"
)

// ── 聚合日历模块业务错误 ──

var (
	ErrCalendarAnchorInvalid = errors.New("锚点日期格式应为 YYYY-MM-DD")
	ErrEntryNotDeletable     = errors.New("只有手动占用时段可以在日历中删除")
	ErrManualBlockNotFound   = errors.New("手动占用时段不存在")
)

// ScheduleSource 日历条目来源能力。
// 每种来源（团课 / 私教 / 手动占用）各自实现取数，
// 聚合器只消费统一的 ScheduleEntry 投影，不触碰来源私有表结构。
type ScheduleSource interface {
	SourceType() string
	Fetch(ctx context.Context, start, end time.Time, ownerIDs []string) ([]dto.ScheduleEntry, error)
}

// CalendarService 聚合日历业务接口
type CalendarService interface {
	GetCalendar(ctx context.Context, req *dto.CalendarRequest) (*dto.CalendarResponse, error)
	// DeleteManualEntry 日历端唯一允许的删除：仅手动占用时段
	DeleteManualEntry(ctx context.Context, sourceType, sourceID string) error
}

type calendarService struct {
	sources []ScheduleSource
	repo    *repository.Repository
	loc     *time.Location
	logger  *zap.Logger
}

// NewCalendarService 创建 CalendarService，注册全部条目来源
func NewCalendarService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) CalendarService {
	return &calendarService{
		sources: []ScheduleSource{
			&classSource{repo: repo, loc: loc},
			&ptSource{repo: repo},
			&manualBlockSource{repo: repo},
		},
		repo:   repo,
		loc:    loc,
		logger: logger,
	}
}

// ────────────────────── GetCalendar ──────────────────────

func (s *calendarService) GetCalendar(ctx context.Context, req *dto.CalendarRequest) (*dto.CalendarResponse, error) {
	anchor, err := parseCivilDate(req.Anchor, s.loc)
	if err != nil {
		return nil, ErrCalendarAnchorInvalid
	}

	start, end, err := resolveWindow(anchor, req.Granularity, s.loc)
	if err != nil {
		return nil, err
	}

	wantedSources := make(map[string]bool, len(req.SourceTypes))
	for _, t := range req.SourceTypes {
		wantedSources[t] = true
	}

	// 逐来源取数；任何来源失败都显式上抛，
	// 引擎层不做静默降级，由展示层自行决定容错
	var entries []dto.ScheduleEntry
	for _, src := range s.sources {
		if len(wantedSources) > 0 && !wantedSources[src.SourceType()] {
			continue
		}
		fetched, err := src.Fetch(ctx, start, end, req.OwnerIDs)
		if err != nil {
			s.logger.Error("日历来源取数失败",
				zap.String("source_type", src.SourceType()),
				zap.Error(err))
			return nil, err
		}
		entries = append(entries, fetched...)
	}

	// 稳定排序：开始时刻 → 来源类型 → 归属人，保证渲染顺序确定
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Start.Equal(entries[j].Start) {
			return entries[i].Start.Before(entries[j].Start)
		}
		if entries[i].SourceType != entries[j].SourceType {
			return entries[i].SourceType < entries[j].SourceType
		}
		return entries[i].OwnerID < entries[j].OwnerID
	})

	if entries == nil {
		entries = []dto.ScheduleEntry{}
	}

	return &dto.CalendarResponse{
		WindowStart:   start.Format(time.RFC3339),
		WindowEnd:     end.Format(time.RFC3339),
		Granularity:   req.Granularity,
		Entries:       entries,
		ActiveBuckets: activeBuckets(entries, s.loc),
	}, nil
}

// ────────────────────── DeleteManualEntry ──────────────────────

func (s *calendarService) DeleteManualEntry(ctx context.Context, sourceType, sourceID string) error {
	// 团课与私教条目的生命周期归各自子系统，日历端只读
	if sourceType != dto.SourceManualBlock {
		return ErrEntryNotDeletable
	}

	if _, err := s.repo.ManualBlock.GetByID(ctx, sourceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrManualBlockNotFound
		}
		s.logger.Error("查询手动占用时段失败", zap.String("id", sourceID), zap.Error(err))
		return err
	}

	if err := s.repo.ManualBlock.Delete(ctx, sourceID); err != nil {
		s.logger.Error("删除手动占用时段失败", zap.String("id", sourceID), zap.Error(err))
		return err
	}
	return nil
}

// ── 来源实现 ──

// classSource 团课实例来源
type classSource struct {
	repo *repository.Repository
	loc  *time.Location
}

func (s *classSource) SourceType() string { return dto.SourceClass }

func (s *classSource) Fetch(ctx context.Context, start, end time.Time, ownerIDs []string) ([]dto.ScheduleEntry, error) {
	sessions, err := s.repo.Session.ListByWindow(ctx, start, end, ownerIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.ScheduleEntry, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		title := "团课"
		colorCode := ""
		if sess.Template != nil {
			title = sess.Template.Name
			colorCode = sess.Template.ColorCode
		}
		entries = append(entries, dto.ScheduleEntry{
			SourceType: dto.SourceClass,
			SourceID:   sess.SessionID,
			Start:      sess.StartsAt,
			End:        sess.EndsAt,
			Title:      title,
			OwnerID:    sess.CoachID,
			ColorCode:  colorCode,
		})
	}
	return entries, nil
}

// ptSource 私教预约来源（只读）
type ptSource struct {
	repo *repository.Repository
}

func (s *ptSource) SourceType() string { return dto.SourcePTSession }

func (s *ptSource) Fetch(ctx context.Context, start, end time.Time, ownerIDs []string) ([]dto.ScheduleEntry, error) {
	bookings, err := s.repo.PTBooking.ListByWindow(ctx, start, end, ownerIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.ScheduleEntry, 0, len(bookings))
	for i := range bookings {
		bk := &bookings[i]
		title := "私教"
		colorCode := ""
		if bk.Coach != nil {
			title = "私教 · " + bk.Coach.Name
			colorCode = bk.Coach.ColorCode
		}
		entries = append(entries, dto.ScheduleEntry{
			SourceType: dto.SourcePTSession,
			SourceID:   bk.BookingID,
			Start:      bk.StartsAt,
			End:        bk.EndsAt,
			Title:      title,
			OwnerID:    bk.CoachID,
			ColorCode:  colorCode,
		})
	}
	return entries, nil
}

// manualBlockSource 手动占用时段来源
type manualBlockSource struct {
	repo *repository.Repository
}

func (s *manualBlockSource) SourceType() string { return dto.SourceManualBlock }

func (s *manualBlockSource) Fetch(ctx context.Context, start, end time.Time, ownerIDs []string) ([]dto.ScheduleEntry, error) {
	blocks, err := s.repo.ManualBlock.ListByWindow(ctx, start, end, ownerIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.ScheduleEntry, 0, len(blocks))
	for i := range blocks {
		blk := &blocks[i]
		colorCode := ""
		if blk.Staff != nil {
			colorCode = blk.Staff.ColorCode
		}
		entries = append(entries, dto.ScheduleEntry{
			SourceType: dto.SourceManualBlock,
			SourceID:   blk.BlockID,
			Start:      blk.StartsAt,
			End:        blk.EndsAt,
			Title:      blk.Title,
			OwnerID:    blk.StaffID,
			ColorCode:  colorCode,
		})
	}
	return entries, nil
}
