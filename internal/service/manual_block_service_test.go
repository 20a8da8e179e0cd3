package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"bornfit/backend/internal/dto"
)

func newTestManualBlockService(m *testMocks) ManualBlockService {
	return NewManualBlockService(m.repo, testLoc, zap.NewNop())
}

func TestManualBlockService_Create(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	svc := newTestManualBlockService(m)

	resp, err := svc.Create(context.Background(), &dto.CreateManualBlockRequest{
		StaffID:   "coach-001",
		Title:     "私教体验课接待",
		Date:      "2025-01-10",
		StartTime: "10:00",
		EndTime:   "11:30",
	}, "staff-001")
	if err != nil {
		t.Fatalf("创建占用时段应成功: %v", err)
	}
	if resp.Source != "manual" {
		t.Errorf("手工录入来源应为 manual，实际 %s", resp.Source)
	}

	stored := m.manualBlock.blocks[resp.ID]
	if !stored.StartsAt.Equal(time.Date(2025, 1, 10, 10, 0, 0, 0, testLoc)) ||
		!stored.EndsAt.Equal(time.Date(2025, 1, 10, 11, 30, 0, 0, testLoc)) {
		t.Errorf("期望 10:00–11:30，实际 %v–%v", stored.StartsAt, stored.EndsAt)
	}
}

func TestManualBlockService_Create_TimeInverted(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	svc := newTestManualBlockService(m)

	_, err := svc.Create(context.Background(), &dto.CreateManualBlockRequest{
		StaffID:   "coach-001",
		Title:     "例会",
		Date:      "2025-01-10",
		StartTime: "11:00",
		EndTime:   "10:00",
	}, "staff-001")
	if !errors.Is(err, ErrBlockTimeInvalid) {
		t.Errorf("起止倒置应返回 ErrBlockTimeInvalid，实际 %v", err)
	}
}

func TestManualBlockService_Create_InactiveStaff(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	m.staff.staff["coach-001"].IsActive = false
	svc := newTestManualBlockService(m)

	_, err := svc.Create(context.Background(), &dto.CreateManualBlockRequest{
		StaffID:   "coach-001",
		Title:     "例会",
		Date:      "2025-01-10",
		StartTime: "10:00",
		EndTime:   "11:00",
	}, "staff-001")
	if !errors.Is(err, ErrBlockStaffGone) {
		t.Errorf("停用员工应返回 ErrBlockStaffGone，实际 %v", err)
	}
}

func TestManualBlockService_Import_FromReader(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	svc := newTestManualBlockService(m)

	resp, err := svc.Import(context.Background(), &dto.ImportBlocksRequest{
		StaffID: "coach-001",
		From:    "2025-01-01",
		Until:   "2025-01-31",
	}, strings.NewReader(testICSWeekly), "staff-001")
	if err != nil {
		t.Fatalf("从上传内容导入应成功: %v", err)
	}

	if resp.ImportedCount != 4 {
		t.Errorf("期望导入 4 个时段，实际 %d", resp.ImportedCount)
	}
	if len(m.manualBlock.blocks) != 4 {
		t.Errorf("期望落库 4 个时段，实际 %d", len(m.manualBlock.blocks))
	}
	for _, b := range resp.Blocks {
		if b.Source != "ics" {
			t.Errorf("导入时段来源应为 ics，实际 %s", b.Source)
			break
		}
	}
}

func TestManualBlockService_Import_NoSource(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	svc := newTestManualBlockService(m)

	_, err := svc.Import(context.Background(), &dto.ImportBlocksRequest{
		StaffID: "coach-001",
		From:    "2025-01-01",
		Until:   "2025-01-31",
	}, nil, "staff-001")
	if !errors.Is(err, ErrImportSourceGone) {
		t.Errorf("既无文件也无 URL 应返回 ErrImportSourceGone，实际 %v", err)
	}
}

func TestManualBlockService_Import_WindowInverted(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	svc := newTestManualBlockService(m)

	_, err := svc.Import(context.Background(), &dto.ImportBlocksRequest{
		StaffID: "coach-001",
		From:    "2025-01-31",
		Until:   "2025-01-01",
	}, strings.NewReader(testICSWeekly), "staff-001")
	if !errors.Is(err, ErrBlockTimeInvalid) {
		t.Errorf("导入窗口倒置应返回 ErrBlockTimeInvalid，实际 %v", err)
	}
}
