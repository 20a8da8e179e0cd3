package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bornfit/backend/internal/dto"
	"bornfit/backend/internal/model"
	"bornfit/backend/internal/repository"
)

// ── 手动占用时段模块业务错误 ──

var (
	ErrBlockTimeInvalid = errors.New("占用结束时间必须晚于开始时间")
	ErrBlockStaffGone   = errors.New("员工不存在或已停用")
	ErrImportSourceGone = errors.New("ICS 导入需提供 URL 或上传文件")
)

// ManualBlockService 手动占用时段业务接口
type ManualBlockService interface {
	Create(ctx context.Context, req *dto.CreateManualBlockRequest, callerID string) (*dto.ManualBlockResponse, error)
	// Import 从 ICS 内容批量导入占用时段；reader 为空时按 req.URL 拉取
	Import(ctx context.Context, req *dto.ImportBlocksRequest, reader io.Reader, callerID string) (*dto.ImportBlocksResponse, error)
}

type manualBlockService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewManualBlockService 创建 ManualBlockService 实例
func NewManualBlockService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ManualBlockService {
	return &manualBlockService{repo: repo, loc: loc, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *manualBlockService) Create(ctx context.Context, req *dto.CreateManualBlockRequest, callerID string) (*dto.ManualBlockResponse, error) {
	if err := s.ensureStaff(ctx, req.StaffID); err != nil {
		return nil, err
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
		return nil, ErrBlockTimeInvalid
	}

	y, m, d := date.Date()
	block := &model.ManualBlock{
		StaffID:  req.StaffID,
		Title:    req.Title,
		StartsAt: time.Date(y, m, d, startMin/60, startMin%60, 0, 0, s.loc),
		EndsAt:   time.Date(y, m, d, endMin/60, endMin%60, 0, 0, s.loc),
		Source:   "manual",
	}
	block.CreatedBy = &callerID

	if err := s.repo.ManualBlock.Create(ctx, block); err != nil {
		s.logger.Error("创建手动占用时段失败", zap.Error(err))
		return nil, err
	}

	return s.toBlockResponse(block), nil
}

// ────────────────────── Import ──────────────────────

func (s *manualBlockService) Import(ctx context.Context, req *dto.ImportBlocksRequest, reader io.Reader, callerID string) (*dto.ImportBlocksResponse, error) {
	if err := s.ensureStaff(ctx, req.StaffID); err != nil {
		return nil, err
	}

	from, err := parseCivilDate(req.From, s.loc)
	if err != nil {
		return nil, err
	}
	until, err := parseCivilDate(req.Until, s.loc)
	if err != nil {
		return nil, err
	}
	if until.Before(from) {
		return nil, ErrBlockTimeInvalid
	}

	if reader == nil {
		if req.URL == "" {
			return nil, ErrImportSourceGone
		}
		body, err := FetchICSContent(req.URL)
		if err != nil {
			s.logger.Warn("拉取 ICS 失败", zap.String("url", req.URL), zap.Error(err))
			return nil, err
		}
		defer body.Close()
		reader = body
	}

	blocks, err := ParseICSBlocks(reader, req.StaffID, from, until, s.loc)
	if err != nil {
		return nil, err
	}
	for i := range blocks {
		blocks[i].CreatedBy = &callerID
	}

	if err := s.repo.ManualBlock.BatchCreate(ctx, blocks); err != nil {
		s.logger.Error("批量写入占用时段失败", zap.Int("count", len(blocks)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("ICS 导入完成",
		zap.String("staff_id", req.StaffID),
		zap.Int("imported", len(blocks)))

	resp := &dto.ImportBlocksResponse{
		ImportedCount: len(blocks),
		Blocks:        make([]dto.ManualBlockResponse, 0, len(blocks)),
	}
	for i := range blocks {
		resp.Blocks = append(resp.Blocks, *s.toBlockResponse(&blocks[i]))
	}
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *manualBlockService) ensureStaff(ctx context.Context, staffID string) error {
	staff, err := s.repo.Staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBlockStaffGone
		}
		s.logger.Error("查询员工失败", zap.String("staff_id", staffID), zap.Error(err))
		return err
	}
	if !staff.IsActive {
		return ErrBlockStaffGone
	}
	return nil
}

func (s *manualBlockService) toBlockResponse(b *model.ManualBlock) *dto.ManualBlockResponse {
	resp := &dto.ManualBlockResponse{
		ID:        b.BlockID,
		Title:     b.Title,
		StartsAt:  b.StartsAt.In(s.loc).Format(time.RFC3339),
		EndsAt:    b.EndsAt.In(s.loc).Format(time.RFC3339),
		Source:    b.Source,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
	if b.Staff != nil {
		resp.Staff = &dto.StaffBrief{
			ID:        b.Staff.StaffID,
			Name:      b.Staff.Name,
			Role:      b.Staff.Role,
			ColorCode: b.Staff.ColorCode,
		}
	}
	return resp
}
