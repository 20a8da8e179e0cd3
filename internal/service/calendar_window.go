package service

import (
	"fmt"
	"time"

	"bornfit/backend/internal/dto"
)

// ── 日历窗口规划 ──
//
// 所有窗口边界从场馆本地日历分量推导，绝不在查询中途
// 用 epoch 瞬时反推日期，避免偏移边界上的日期错位。

// 日历粒度
const (
	GranularityDay   = "day"
	GranularityWeek  = "week"
	GranularityMonth = "month"
)

// resolveWindow 将锚点日历日与粒度解析为 [窗口起, 窗口止]。
//   - day:   [锚点 00:00:00, 锚点 23:59:59]
//   - week:  ISO 周，周一起算；周日归入上一个周一
//   - month: [当月 1 日, 当月最后一日 23:59:59]
func resolveWindow(anchor time.Time, granularity string, loc *time.Location) (time.Time, time.Time, error) {
	day := civilDate(anchor, loc)

	switch granularity {
	case GranularityDay:
		return day, endOfDay(day, loc), nil

	case GranularityWeek:
		// ISO 1=周一 … 7=周日：周日回退到上一个周一
		offset := isoWeekday(day.Weekday()) - 1
		monday := day.AddDate(0, 0, -offset)
		return monday, endOfDay(monday.AddDate(0, 0, 6), loc), nil

	case GranularityMonth:
		y, m, _ := day.Date()
		first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		last := first.AddDate(0, 1, -1)
		return first, endOfDay(last, loc), nil

	default:
		return time.Time{}, time.Time{}, fmt.Errorf("未知的日历粒度: %q", granularity)
	}
}

func endOfDay(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, 0, loc)
}

// activeBuckets 计算窗口内条目覆盖的整点时段标签。
// 每个条目贡献 [floor(开始小时), ceil(结束小时)) 区间，取并集后升序输出。
// 无条目时返回空切片，渲染层不得回退为全天网格。
func activeBuckets(entries []dto.ScheduleEntry, loc *time.Location) []string {
	seen := make(map[int]bool)

	for i := range entries {
		start := entries[i].Start.In(loc)
		end := entries[i].End.In(loc)

		from := start.Hour()
		until := end.Hour()
		// 结束时刻不落在整点时向上取整
		if end.Minute() > 0 || end.Second() > 0 {
			until++
		}
		if until <= from {
			until = from + 1
		}
		for h := from; h < until && h < 24; h++ {
			seen[h] = true
		}
	}

	labels := make([]string, 0, len(seen))
	for h := 0; h < 24; h++ {
		if seen[h] {
			labels = append(labels, fmt.Sprintf("%02d:00", h))
		}
	}
	return labels
}
