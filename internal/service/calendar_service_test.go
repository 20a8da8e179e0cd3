package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"bornfit/backend/internal/dto"
	"bornfit/backend/internal/model"
)

// seedCalendarWeek 预置 2025-01-06（周一）所在周的三类条目：
// 周一 09:00 团课、周三 14:00 私教、周五 10:00 手动占用
func seedCalendarWeek(m *testMocks) {
	tpl := m.templates.templates["tpl-yoga"]
	m.sessions.sessions["sess-cal-1"] = &model.SessionInstance{
		SessionID:  "sess-cal-1",
		TemplateID: "tpl-yoga",
		CoachID:    "coach-001",
		Date:       testDate(2025, 1, 6),
		StartsAt:   time.Date(2025, 1, 6, 9, 0, 0, 0, testLoc),
		EndsAt:     time.Date(2025, 1, 6, 10, 0, 0, 0, testLoc),
		Capacity:   10,
		Template:   tpl,
	}
	m.ptBookings.bookings["pt-cal-1"] = &model.PTBooking{
		BookingID: "pt-cal-1",
		CoachID:   "coach-001",
		MemberID:  "member-001",
		StartsAt:  time.Date(2025, 1, 8, 14, 0, 0, 0, testLoc),
		EndsAt:    time.Date(2025, 1, 8, 15, 0, 0, 0, testLoc),
		Status:    "booked",
		Coach:     m.staff.staff["coach-001"],
	}
	m.manualBlock.blocks["blk-cal-1"] = &model.ManualBlock{
		BlockID:  "blk-cal-1",
		StaffID:  "coach-001",
		Title:    "器械维护",
		StartsAt: time.Date(2025, 1, 10, 10, 0, 0, 0, testLoc),
		EndsAt:   time.Date(2025, 1, 10, 11, 0, 0, 0, testLoc),
		Source:   "manual",
	}
}

func newTestCalendarService(m *testMocks) CalendarService {
	return NewCalendarService(m.repo, testLoc, zap.NewNop())
}

func TestCalendarService_GetCalendar_WeekAggregatesAllSources(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	seedCalendarWeek(m)
	svc := newTestCalendarService(m)

	resp, err := svc.GetCalendar(context.Background(), &dto.CalendarRequest{
		Anchor:      "2025-01-08",
		Granularity: GranularityWeek,
	})
	if err != nil {
		t.Fatalf("查询日历应成功: %v", err)
	}

	if len(resp.Entries) != 3 {
		t.Fatalf("期望 3 条条目，实际 %d", len(resp.Entries))
	}
	// 按开始时刻排序：团课 → 私教 → 手动占用
	if resp.Entries[0].SourceType != dto.SourceClass {
		t.Errorf("首条应为团课，实际 %s", resp.Entries[0].SourceType)
	}
	if resp.Entries[0].Title != "瑜伽" {
		t.Errorf("团课标题应取模板名，实际 %q", resp.Entries[0].Title)
	}
	if resp.Entries[1].SourceType != dto.SourcePTSession {
		t.Errorf("次条应为私教，实际 %s", resp.Entries[1].SourceType)
	}
	if resp.Entries[1].Title != "私教 · 王教练" {
		t.Errorf("私教标题应带教练名，实际 %q", resp.Entries[1].Title)
	}
	if resp.Entries[2].SourceType != dto.SourceManualBlock {
		t.Errorf("末条应为手动占用，实际 %s", resp.Entries[2].SourceType)
	}

	want := []string{"09:00", "10:00", "14:00"}
	if len(resp.ActiveBuckets) != len(want) {
		t.Fatalf("期望活跃时段 %v，实际 %v", want, resp.ActiveBuckets)
	}
	for i := range want {
		if resp.ActiveBuckets[i] != want[i] {
			t.Errorf("期望活跃时段 %v，实际 %v", want, resp.ActiveBuckets)
			break
		}
	}
}

func TestCalendarService_GetCalendar_DeterministicTieBreak(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	// 同一时刻的私教与手动占用：来源类型字典序决定先后
	at := time.Date(2025, 1, 6, 9, 0, 0, 0, testLoc)
	m.ptBookings.bookings["pt-tie"] = &model.PTBooking{
		BookingID: "pt-tie", CoachID: "coach-001", MemberID: "member-001",
		StartsAt: at, EndsAt: at.Add(time.Hour), Status: "booked",
	}
	m.manualBlock.blocks["blk-tie"] = &model.ManualBlock{
		BlockID: "blk-tie", StaffID: "coach-001", Title: "例会",
		StartsAt: at, EndsAt: at.Add(time.Hour), Source: "manual",
	}
	svc := newTestCalendarService(m)

	for i := 0; i < 5; i++ {
		resp, err := svc.GetCalendar(context.Background(), &dto.CalendarRequest{
			Anchor:      "2025-01-06",
			Granularity: GranularityDay,
		})
		if err != nil {
			t.Fatalf("查询日历应成功: %v", err)
		}
		if len(resp.Entries) != 2 {
			t.Fatalf("期望 2 条条目，实际 %d", len(resp.Entries))
		}
		if resp.Entries[0].SourceType != dto.SourceManualBlock ||
			resp.Entries[1].SourceType != dto.SourcePTSession {
			t.Fatalf("同刻条目次序应稳定（manual_block < pt_session），实际 %s, %s",
				resp.Entries[0].SourceType, resp.Entries[1].SourceType)
		}
	}
}

func TestCalendarService_GetCalendar_SourceTypeFilter(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	seedCalendarWeek(m)
	svc := newTestCalendarService(m)

	resp, err := svc.GetCalendar(context.Background(), &dto.CalendarRequest{
		Anchor:      "2025-01-08",
		Granularity: GranularityWeek,
		SourceTypes: []string{dto.SourceClass},
	})
	if err != nil {
		t.Fatalf("查询日历应成功: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].SourceType != dto.SourceClass {
		t.Errorf("来源过滤后应只剩团课条目，实际 %+v", resp.Entries)
	}
}

func TestCalendarService_GetCalendar_OwnerFilter(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	seedCalendarWeek(m)
	svc := newTestCalendarService(m)

	resp, err := svc.GetCalendar(context.Background(), &dto.CalendarRequest{
		Anchor:      "2025-01-08",
		Granularity: GranularityWeek,
		OwnerIDs:    []string{"coach-999"},
	})
	if err != nil {
		t.Fatalf("查询日历应成功: %v", err)
	}
	if len(resp.Entries) != 0 {
		t.Errorf("无关教练过滤后应无条目，实际 %d 条", len(resp.Entries))
	}
	if resp.Entries == nil {
		t.Error("空结果应返回空切片而非 nil")
	}
	if len(resp.ActiveBuckets) != 0 {
		t.Errorf("无条目时活跃时段应为空，实际 %v", resp.ActiveBuckets)
	}
}

func TestCalendarService_GetCalendar_InvalidAnchor(t *testing.T) {
	m := newTestMocks()
	svc := newTestCalendarService(m)

	_, err := svc.GetCalendar(context.Background(), &dto.CalendarRequest{
		Anchor:      "01/08/2025",
		Granularity: GranularityWeek,
	})
	if !errors.Is(err, ErrCalendarAnchorInvalid) {
		t.Errorf("非法锚点应返回 ErrCalendarAnchorInvalid，实际 %v", err)
	}
}

// ── DeleteManualEntry ──

func TestCalendarService_DeleteManualEntry(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	seedCalendarWeek(m)
	svc := newTestCalendarService(m)

	if err := svc.DeleteManualEntry(context.Background(), dto.SourceManualBlock, "blk-cal-1"); err != nil {
		t.Fatalf("删除手动占用应成功: %v", err)
	}
	if _, ok := m.manualBlock.blocks["blk-cal-1"]; ok {
		t.Error("删除后时段仍存在")
	}
}

func TestCalendarService_DeleteManualEntry_RejectsOtherSources(t *testing.T) {
	m := newTestMocks()
	m.seedDirectory()
	seedCalendarWeek(m)
	svc := newTestCalendarService(m)

	if err := svc.DeleteManualEntry(context.Background(), dto.SourceClass, "sess-cal-1"); !errors.Is(err, ErrEntryNotDeletable) {
		t.Errorf("删除团课条目应返回 ErrEntryNotDeletable，实际 %v", err)
	}
	if err := svc.DeleteManualEntry(context.Background(), dto.SourcePTSession, "pt-cal-1"); !errors.Is(err, ErrEntryNotDeletable) {
		t.Errorf("删除私教条目应返回 ErrEntryNotDeletable，实际 %v", err)
	}
	if _, ok := m.sessions.sessions["sess-cal-1"]; !ok {
		t.Error("被拒绝的删除不应影响团课实例")
	}
}

func TestCalendarService_DeleteManualEntry_NotFound(t *testing.T) {
	m := newTestMocks()
	svc := newTestCalendarService(m)

	if err := svc.DeleteManualEntry(context.Background(), dto.SourceManualBlock, "blk-missing"); !errors.Is(err, ErrManualBlockNotFound) {
		t.Errorf("不存在的时段应返回 ErrManualBlockNotFound，实际 %v", err)
	}
}
