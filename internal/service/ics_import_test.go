package service

import (
	"strings"
	"testing"
	"time"
)

// 周一 09:00 例会，按周重复
const testICSWeekly = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
SUMMARY:教研例会
DTSTART:20250106T090000
DTEND:20250106T100000
RRULE:FREQ=WEEKLY
END:VEVENT
END:VCALENDAR`

const testICSWithExDate = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
SUMMARY:教研例会
DTSTART:20250106T090000
DTEND:20250106T100000
RRULE:FREQ=WEEKLY
EXDATE:20250113T090000
END:VEVENT
END:VCALENDAR`

const testICSSingle = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
SUMMARY:器械年检
DTSTART:20250110T140000
END:VEVENT
BEGIN:VEVENT
SUMMARY:窗口外的保洁
DTSTART:20250310T080000
DTEND:20250310T090000
END:VEVENT
END:VCALENDAR`

func TestParseICSBlocks_WeeklyExpansion(t *testing.T) {
	from := testDate(2025, 1, 1)
	until := testDate(2025, 1, 31)

	blocks, err := ParseICSBlocks(strings.NewReader(testICSWeekly), "coach-001", from, until, testLoc)
	if err != nil {
		t.Fatalf("解析 ICS 应成功: %v", err)
	}

	// 窗口内的周一：1/6、1/13、1/20、1/27
	if len(blocks) != 4 {
		t.Fatalf("期望展开 4 个时段，实际 %d", len(blocks))
	}
	for i, b := range blocks {
		wantStart := time.Date(2025, 1, 6+7*i, 9, 0, 0, 0, testLoc)
		if !b.StartsAt.Equal(wantStart) {
			t.Errorf("第 %d 个时段期望 %v，实际 %v", i+1, wantStart, b.StartsAt)
		}
		if b.EndsAt.Sub(b.StartsAt) != time.Hour {
			t.Errorf("时段时长应为 1 小时，实际 %v", b.EndsAt.Sub(b.StartsAt))
		}
		if b.Title != "教研例会" {
			t.Errorf("标题应为 SUMMARY 值，实际 %q", b.Title)
		}
		if b.StaffID != "coach-001" {
			t.Errorf("员工应为导入目标，实际 %s", b.StaffID)
		}
		if b.Source != "ics" {
			t.Errorf("来源应标记为 ics，实际 %s", b.Source)
		}
	}
}

func TestParseICSBlocks_ExDateSkipped(t *testing.T) {
	from := testDate(2025, 1, 1)
	until := testDate(2025, 1, 31)

	blocks, err := ParseICSBlocks(strings.NewReader(testICSWithExDate), "coach-001", from, until, testLoc)
	if err != nil {
		t.Fatalf("解析 ICS 应成功: %v", err)
	}

	if len(blocks) != 3 {
		t.Fatalf("EXDATE 命中日应跳过，期望 3 个时段，实际 %d", len(blocks))
	}
	excluded := testDate(2025, 1, 13)
	for _, b := range blocks {
		if civilDate(b.StartsAt, testLoc).Equal(excluded) {
			t.Errorf("2025-01-13 已被 EXDATE 排除，不应出现")
		}
	}
}

func TestParseICSBlocks_SingleEventDefaultsOneHour(t *testing.T) {
	from := testDate(2025, 1, 1)
	until := testDate(2025, 1, 31)

	blocks, err := ParseICSBlocks(strings.NewReader(testICSSingle), "coach-001", from, until, testLoc)
	if err != nil {
		t.Fatalf("解析 ICS 应成功: %v", err)
	}

	// 窗口外的事件丢弃，只剩一条单次事件
	if len(blocks) != 1 {
		t.Fatalf("期望 1 个时段，实际 %d", len(blocks))
	}
	b := blocks[0]
	if !b.StartsAt.Equal(time.Date(2025, 1, 10, 14, 0, 0, 0, testLoc)) {
		t.Errorf("期望 2025-01-10 14:00，实际 %v", b.StartsAt)
	}
	if b.EndsAt.Sub(b.StartsAt) != time.Hour {
		t.Errorf("无 DTEND 的事件应默认 1 小时，实际 %v", b.EndsAt.Sub(b.StartsAt))
	}
}

func TestParseICSBlocks_WindowClipsRecurrence(t *testing.T) {
	// 窗口只含 1/13 一个周一
	from := testDate(2025, 1, 12)
	until := testDate(2025, 1, 18)

	blocks, err := ParseICSBlocks(strings.NewReader(testICSWeekly), "coach-001", from, until, testLoc)
	if err != nil {
		t.Fatalf("解析 ICS 应成功: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("期望窗口裁剪后 1 个时段，实际 %d", len(blocks))
	}
	if !blocks[0].StartsAt.Equal(time.Date(2025, 1, 13, 9, 0, 0, 0, testLoc)) {
		t.Errorf("期望 2025-01-13 09:00，实际 %v", blocks[0].StartsAt)
	}
}

func TestParseICSBlocks_Garbage(t *testing.T) {
	from := testDate(2025, 1, 1)
	until := testDate(2025, 1, 31)

	if _, err := ParseICSBlocks(strings.NewReader("这不是日历"), "coach-001", from, until, testLoc); err == nil {
		t.Error("非 ICS 内容应报错")
	}
}

func TestParseRRule(t *testing.T) {
	r := parseRRule("FREQ=WEEKLY;INTERVAL=2;COUNT=8")
	if r.freq != "WEEKLY" || r.interval != 2 || r.count != 8 {
		t.Errorf("期望 {WEEKLY,2,8}，实际 {%s,%d,%d}", r.freq, r.interval, r.count)
	}

	r = parseRRule("FREQ=WEEKLY;UNTIL=20250131T000000Z")
	if r.until.IsZero() {
		t.Error("UNTIL 应被解析")
	}
	if r.interval != 1 {
		t.Errorf("缺省间隔应为 1，实际 %d", r.interval)
	}
}
