package service

import (
	"errors"
	"testing"
	"time"

	"bornfit/backend/internal/model"
)

// 测试统一使用东八区，避免依赖运行环境的 tzdata
var testLoc = time.FixedZone("CST", 8*3600)

func testDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, testLoc)
}

func testPattern() *model.RecurrencePattern {
	return &model.RecurrencePattern{
		PatternID:       "pat-001",
		CoachID:         "coach-001",
		TemplateID:      "tpl-yoga",
		Weekdays:        model.IntArray{1, 3}, // 周一、周三
		StartTime:       "18:00",
		DurationMinutes: 60,
		ValidFrom:       testDate(2025, 1, 1),
		ValidUntil:      testDate(2025, 1, 31),
	}
}

// ── validatePattern 测试 ──

func TestValidatePattern_Valid(t *testing.T) {
	p := testPattern()
	if err := validatePattern(p, testDate(2025, 1, 1)); err != nil {
		t.Fatalf("合法规则不应报错: %v", err)
	}
}

func TestValidatePattern_EmptyWeekdays(t *testing.T) {
	p := testPattern()
	p.Weekdays = model.IntArray{}
	if err := validatePattern(p, testDate(2025, 1, 1)); !errors.Is(err, ErrPatternWeekdaysEmpty) {
		t.Errorf("期望 ErrPatternWeekdaysEmpty，实际: %v", err)
	}
}

func TestValidatePattern_WeekdayOutOfRange(t *testing.T) {
	p := testPattern()
	p.Weekdays = model.IntArray{0}
	if err := validatePattern(p, testDate(2025, 1, 1)); !errors.Is(err, ErrPatternWeekdayInvalid) {
		t.Errorf("期望 ErrPatternWeekdayInvalid，实际: %v", err)
	}
	p.Weekdays = model.IntArray{8}
	if err := validatePattern(p, testDate(2025, 1, 1)); !errors.Is(err, ErrPatternWeekdayInvalid) {
		t.Errorf("期望 ErrPatternWeekdayInvalid，实际: %v", err)
	}
}

func TestValidatePattern_RangeInverted(t *testing.T) {
	p := testPattern()
	p.ValidFrom = testDate(2025, 2, 1)
	p.ValidUntil = testDate(2025, 1, 1)
	if err := validatePattern(p, testDate(2025, 1, 1)); !errors.Is(err, ErrPatternRangeInverted) {
		t.Errorf("期望 ErrPatternRangeInverted，实际: %v", err)
	}
}

func TestValidatePattern_WindowPast(t *testing.T) {
	p := testPattern()
	if err := validatePattern(p, testDate(2025, 3, 1)); !errors.Is(err, ErrPatternWindowPast) {
		t.Errorf("期望 ErrPatternWindowPast，实际: %v", err)
	}
}

func TestValidatePattern_StartTimeInvalid(t *testing.T) {
	p := testPattern()
	p.StartTime = "25:99"
	if err := validatePattern(p, testDate(2025, 1, 1)); !errors.Is(err, ErrPatternStartTimeInvalid) {
		t.Errorf("期望 ErrPatternStartTimeInvalid，实际: %v", err)
	}
}

func TestValidatePattern_DurationInvalid(t *testing.T) {
	p := testPattern()
	p.DurationMinutes = 0
	if err := validatePattern(p, testDate(2025, 1, 1)); !errors.Is(err, ErrPatternDurationInvalid) {
		t.Errorf("期望 ErrPatternDurationInvalid，实际: %v", err)
	}
}

func TestValidatePattern_CrossMidnight(t *testing.T) {
	p := testPattern()
	p.StartTime = "23:30"
	p.DurationMinutes = 60
	if err := validatePattern(p, testDate(2025, 1, 1)); !errors.Is(err, ErrPatternCrossMidnight) {
		t.Errorf("期望 ErrPatternCrossMidnight，实际: %v", err)
	}

	// 恰好到午夜（23:00 + 60min = 24:00）允许
	p.StartTime = "23:00"
	if err := validatePattern(p, testDate(2025, 1, 1)); err != nil {
		t.Errorf("到午夜整点的课不应报错: %v", err)
	}
}

// ── occursOn 测试 ──

func TestOccursOn(t *testing.T) {
	p := testPattern()

	// 2025-01-06 是周一
	if !occursOn(p, testDate(2025, 1, 6)) {
		t.Error("周一应命中 {周一,周三}")
	}
	// 2025-01-07 是周二
	if occursOn(p, testDate(2025, 1, 7)) {
		t.Error("周二不应命中 {周一,周三}")
	}
	// 有效期之外
	if occursOn(p, testDate(2025, 2, 3)) {
		t.Error("有效期外的周一不应命中")
	}
	if occursOn(p, testDate(2024, 12, 30)) {
		t.Error("生效前的周一不应命中")
	}
	// 边界日
	if !occursOn(p, testDate(2025, 1, 1)) { // 周三，valid_from 当天
		t.Error("valid_from 当天命中的星期应生效")
	}
}

// ── concreteWindow 测试 ──

func TestConcreteWindow(t *testing.T) {
	p := testPattern()
	start, end := concreteWindow(p, testDate(2025, 1, 6), testLoc)

	wantStart := time.Date(2025, 1, 6, 18, 0, 0, 0, testLoc)
	wantEnd := time.Date(2025, 1, 6, 19, 0, 0, 0, testLoc)
	if !start.Equal(wantStart) {
		t.Errorf("期望开始 %v，实际 %v", wantStart, start)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("期望结束 %v，实际 %v", wantEnd, end)
	}
}

// ── 日历辅助函数测试 ──

func TestIsoWeekday(t *testing.T) {
	cases := []struct {
		date time.Time
		want int
	}{
		{testDate(2025, 1, 6), 1},  // 周一
		{testDate(2025, 1, 11), 6}, // 周六
		{testDate(2025, 1, 12), 7}, // 周日
	}
	for _, c := range cases {
		if got := isoWeekday(c.date.Weekday()); got != c.want {
			t.Errorf("%v: 期望 %d，实际 %d", c.date, c.want, got)
		}
	}
}

func TestCivilDate(t *testing.T) {
	// 东八区 2025-01-07 01:30 对应 UTC 2025-01-06 17:30：
	// 民用日必须按场馆时区判定，不能按 UTC
	instant := time.Date(2025, 1, 6, 17, 30, 0, 0, time.UTC)
	got := civilDate(instant, testLoc)
	if !got.Equal(testDate(2025, 1, 7)) {
		t.Errorf("期望 2025-01-07，实际 %v", got)
	}
}

func TestTargetDates(t *testing.T) {
	p := testPattern()
	dates := targetDates(p, testLoc)

	// 2025 年 1 月的周一：6/13/20/27，周三：1/8/15/22/29 → 共 9 天
	if len(dates) != 9 {
		t.Fatalf("期望 9 个目标日期，实际 %d", len(dates))
	}
	if !dates[0].Equal(testDate(2025, 1, 1)) {
		t.Errorf("首个目标日期应为 2025-01-01，实际 %v", dates[0])
	}
	if !dates[8].Equal(testDate(2025, 1, 29)) {
		t.Errorf("末个目标日期应为 2025-01-29，实际 %v", dates[8])
	}
}

func TestParseClock(t *testing.T) {
	if min, err := parseClock("18:30"); err != nil || min != 18*60+30 {
		t.Errorf("18:30 应解析为 1110 分钟: min=%d err=%v", min, err)
	}
	if _, err := parseClock("bogus"); !errors.Is(err, ErrPatternStartTimeInvalid) {
		t.Errorf("非法时间应返回 ErrPatternStartTimeInvalid，实际: %v", err)
	}
}
