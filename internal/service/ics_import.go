package service

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"bornfit/backend/internal/model"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将标准 iCalendar (RFC 5545) 内容解析为员工手动占用时段。
//
// 设计决策：
//   - DTSTART/DTEND 确定起止时刻；无 DTEND 的事件默认 1 小时
//   - RRULE 仅支持 FREQ=WEEKLY，在导入窗口内按周展开；其他频率按单次处理
//   - EXDATE 命中的日期跳过
//   - 起止都落在导入窗口之外的事件丢弃
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
)

// FetchICSContent 从 URL 获取 ICS 内容
func FetchICSContent(rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseICSBlocks 解析 ICS 内容并转为落在 [from, until] 窗口内的占用时段
func ParseICSBlocks(reader io.Reader, staffID string, from, until time.Time, loc *time.Location) ([]model.ManualBlock, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	windowEnd := endOfDay(until, loc)

	var blocks []model.ManualBlock
	for _, evt := range cal.Events() {
		blocks = append(blocks, parseBlockEvent(evt, staffID, from, windowEnd, loc)...)
	}
	return blocks, nil
}

// parseBlockEvent 将单个 VEVENT 展开为窗口内的占用时段列表
func parseBlockEvent(evt *ics.VEvent, staffID string, from, until time.Time, loc *time.Location) []model.ManualBlock {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return nil
	}
	title := strings.TrimSpace(summary.Value)

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return nil
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		// 无 DTEND 时默认 1 小时
		dtEnd = dtStart.Add(time.Hour)
	}
	duration := dtEnd.Sub(dtStart)
	if duration <= 0 {
		return nil
	}

	exDates := parseExDates(evt, loc)

	emit := func(start time.Time) []model.ManualBlock {
		end := start.Add(duration)
		if end.Before(from) || start.After(until) {
			return nil
		}
		if exDates[start.In(loc).Format("20060102")] {
			return nil
		}
		return []model.ManualBlock{{
			StaffID:  staffID,
			Title:    title,
			StartsAt: start,
			EndsAt:   end,
			Source:   "ics",
		}}
	}

	rruleProp := evt.GetProperty(ics.ComponentPropertyRrule)
	if rruleProp == nil {
		return emit(dtStart)
	}

	rule := parseRRule(rruleProp.Value)
	if rule.freq != "WEEKLY" {
		// 非周重复按单次处理
		return emit(dtStart)
	}

	interval := rule.interval
	if interval < 1 {
		interval = 1
	}

	var blocks []model.ManualBlock
	count := 0
	for current := dtStart; !current.After(until); current = current.AddDate(0, 0, 7*interval) {
		if !rule.until.IsZero() && current.After(rule.until) {
			break
		}
		if rule.count > 0 && count >= rule.count {
			break
		}
		count++
		blocks = append(blocks, emit(current)...)
	}
	return blocks
}

// rruleParams RRULE 解析结果
type rruleParams struct {
	freq     string
	interval int
	count    int
	until    time.Time
}

// parseRRule 解析 RRULE 字符串（如 FREQ=WEEKLY;COUNT=16;INTERVAL=1）
func parseRRule(value string) rruleParams {
	r := rruleParams{interval: 1}
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			r.freq = strings.ToUpper(kv[1])
		case "INTERVAL":
			fmt.Sscanf(kv[1], "%d", &r.interval)
		case "COUNT":
			fmt.Sscanf(kv[1], "%d", &r.count)
		case "UNTIL":
			t, err := time.Parse("20060102T150405Z", kv[1])
			if err != nil {
				t, _ = time.Parse("20060102", kv[1])
			}
			r.until = t
		}
	}
	return r
}

// parseExDates 解析事件中所有 EXDATE
func parseExDates(evt *ics.VEvent, loc *time.Location) map[string]bool {
	exDates := make(map[string]bool)
	for _, prop := range evt.Properties {
		if prop.IANAToken == string(ics.ComponentPropertyExdate) {
			t, err := time.Parse("20060102T150405Z", prop.Value)
			if err != nil {
				t, err = time.Parse("20060102T150405", prop.Value)
				if err != nil {
					t, err = time.Parse("20060102", prop.Value)
				}
			}
			if err == nil {
				exDates[t.In(loc).Format("20060102")] = true
			}
		}
	}
	return exDates
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	// 尝试多种 ICS 日期格式
	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			if strings.HasSuffix(layout, "Z") {
				return t.In(loc), nil
			}
			if tzid != "" {
				if tzLoc, err := time.LoadLocation(tzid); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
				}
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
