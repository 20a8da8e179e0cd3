package service

import (
	"errors"
	"fmt"
	"time"

	"bornfit/backend/internal/model"
)

// ── 周期规则校验错误 ──

var (
	ErrPatternWeekdaysEmpty    = errors.New("星期集合不能为空")
	ErrPatternWeekdayInvalid   = errors.New("星期值必须在 1（周一）到 7（周日）之间")
	ErrPatternDateInvalid      = errors.New("日期格式应为 YYYY-MM-DD")
	ErrPatternRangeInverted    = errors.New("生效起始日期不能晚于结束日期")
	ErrPatternWindowPast       = errors.New("生效结束日期不能早于今天")
	ErrPatternStartTimeInvalid = errors.New("开始时间格式应为 HH:MM")
	ErrPatternDurationInvalid  = errors.New("课程时长必须为正数")
	ErrPatternCrossMidnight    = errors.New("单次课程不能跨越午夜")
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// parseClock 解析 "HH:MM" 挂钟时间，返回当天分钟偏移
func parseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, ErrPatternStartTimeInvalid
	}
	return t.Hour()*60 + t.Minute(), nil
}

// parseCivilDate 解析 "2006-01-02" 为场馆本地零点
func parseCivilDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式应为 %s: %w", dateLayout, err)
	}
	return t, nil
}

// civilDate 取瞬时时间在场馆时区下的日历日（当日零点）。
// 所有日界判断都从年月日分量重建，绝不用 epoch 截断，
// 避免跨时区偏移时的日期漂移。
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// isoWeekday 将 Go 的 time.Weekday (0=Sunday) 转为 ISO 8601 (1=周一 … 7=周日)
func isoWeekday(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// validatePattern 校验规则不变量。
// today 为场馆本地当日零点；仅创建/更新时调用，展开不再复检。
func validatePattern(p *model.RecurrencePattern, today time.Time) error {
	if len(p.Weekdays) == 0 {
		return ErrPatternWeekdaysEmpty
	}
	for _, wd := range p.Weekdays {
		if wd < 1 || wd > 7 {
			return ErrPatternWeekdayInvalid
		}
	}
	if p.ValidFrom.After(p.ValidUntil) {
		return ErrPatternRangeInverted
	}
	if p.ValidUntil.Before(today) {
		return ErrPatternWindowPast
	}
	if p.DurationMinutes <= 0 {
		return ErrPatternDurationInvalid
	}
	startMin, err := parseClock(p.StartTime)
	if err != nil {
		return err
	}
	if startMin+p.DurationMinutes > 24*60 {
		return ErrPatternCrossMidnight
	}
	return nil
}

// occursOn 判断规则在指定日历日是否产生课次
func occursOn(p *model.RecurrencePattern, date time.Time) bool {
	if date.Before(p.ValidFrom) || date.After(p.ValidUntil) {
		return false
	}
	return p.Weekdays.Contains(isoWeekday(date.Weekday()))
}

// concreteWindow 将日历日与规则的挂钟时间组合为具体起止时刻。
// 时长在规则创建时已从模板解析锁定，这里不重新取模板。
func concreteWindow(p *model.RecurrencePattern, date time.Time, loc *time.Location) (time.Time, time.Time) {
	startMin, _ := parseClock(p.StartTime)
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, startMin/60, startMin%60, 0, 0, loc)
	return start, start.Add(time.Duration(p.DurationMinutes) * time.Minute)
}

// targetDates 枚举有效期内所有命中星期集合的日历日
func targetDates(p *model.RecurrencePattern, loc *time.Location) []time.Time {
	var dates []time.Time
	from := civilDate(p.ValidFrom, loc)
	until := civilDate(p.ValidUntil, loc)
	for d := from; !d.After(until); d = d.AddDate(0, 0, 1) {
		if p.Weekdays.Contains(isoWeekday(d.Weekday())) {
			dates = append(dates, d)
		}
	}
	return dates
}
