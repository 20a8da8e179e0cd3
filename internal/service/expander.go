package service

import (
	"time"

	"bornfit/backend/internal/model"
	"bornfit/backend/internal/repository"
)

// ── 规则展开（对账）计划 ──
//
// buildReconcilePlan 是纯函数：输入规则当前定义、既有实例与签到统计，
// 输出一份待落库的变更计划。落库本身由 repository.ApplyReconciliation
// 在单个事务中执行，保证部分应用不可见。
//
// 历史保护规则：
//   - 已开始的实例（start < now）从不删除、从不改动时间，只同步非时间字段
//   - 未开始但已有签到的实例按历史对待并记一次可恢复降级
//   - 未开始且仍命中新规则日期的实例保留，时间窗口按新规则刷新
//   - 未开始且不再命中的实例删除，其未签到预约级联取消

// reconcilePlan 一次对账的变更计划与统计
type reconcilePlan struct {
	changes  repository.ReconcileChanges
	created  int
	deleted  int
	retained int
	// degraded 记录"未来却已签到"而被按历史保留的实例 ID
	degraded []string
}

// buildReconcilePlan 计算规则实例集与当前定义的差异。
//
// existing 为该规则名下全部实例；checkedIn 为各实例的已签到人数；
// capacity 为本次展开从模板解析出的容量，写入新建与刷新的实例。
func buildReconcilePlan(
	p *model.RecurrencePattern,
	existing []model.SessionInstance,
	checkedIn map[string]int64,
	now time.Time,
	loc *time.Location,
	capacity int,
) *reconcilePlan {
	plan := &reconcilePlan{}

	targets := targetDates(p, loc)
	targetSet := make(map[string]bool, len(targets))
	for _, d := range targets {
		targetSet[d.Format(dateLayout)] = true
	}

	// 已有实例占据的日期：历史与未来都算，
	// 否则重复对账会在历史日期上再生一份新实例
	occupied := make(map[string]bool, len(existing))

	for i := range existing {
		inst := &existing[i]
		dateKey := civilDate(inst.Date, loc).Format(dateLayout)

		isPast := inst.StartsAt.Before(now)
		if !isPast && checkedIn[inst.SessionID] > 0 {
			// 未来实例却已有签到：按历史保留，时间不动
			isPast = true
			plan.degraded = append(plan.degraded, inst.SessionID)
		}

		if isPast {
			// 历史实例：只同步非时间字段
			occupied[dateKey] = true
			plan.retained++
			plan.changes.RefreshMeta = append(plan.changes.RefreshMeta, model.SessionInstance{
				SessionID:  inst.SessionID,
				CoachID:    p.CoachID,
				TemplateID: p.TemplateID,
				Capacity:   capacity,
			})
			continue
		}

		if !targetSet[dateKey] {
			// 不再命中新规则：删除，预约级联取消
			plan.deleted++
			plan.changes.Remove = append(plan.changes.Remove, inst.SessionID)
			continue
		}

		// 仍命中：保留，时间窗口随新规则刷新
		occupied[dateKey] = true
		plan.retained++
		date := civilDate(inst.Date, loc)
		start, end := concreteWindow(p, date, loc)
		plan.changes.RefreshWindow = append(plan.changes.RefreshWindow, model.SessionInstance{
			SessionID:  inst.SessionID,
			CoachID:    p.CoachID,
			TemplateID: p.TemplateID,
			Date:       date,
			StartsAt:   start,
			EndsAt:     end,
			Capacity:   capacity,
		})
	}

	// 空缺日期补新实例；已经开始的时点不再回填，
	// 否则扩大有效期会在历史日期上凭空造出没人上过的课
	patternID := p.PatternID
	for _, d := range targets {
		if occupied[d.Format(dateLayout)] {
			continue
		}
		start, end := concreteWindow(p, d, loc)
		if start.Before(now) {
			continue
		}
		plan.created++
		plan.changes.Create = append(plan.changes.Create, model.SessionInstance{
			PatternID:  &patternID,
			TemplateID: p.TemplateID,
			CoachID:    p.CoachID,
			Date:       d,
			StartsAt:   start,
			EndsAt:     end,
			Capacity:   capacity,
		})
	}

	return plan
}

// buildDetachPlan 规则删除时的实例处置计划：
// 历史与已签到实例与规则解绑转为单次课保留，其余未来实例删除。
func buildDetachPlan(
	existing []model.SessionInstance,
	checkedIn map[string]int64,
	now time.Time,
) *repository.ReconcileChanges {
	changes := &repository.ReconcileChanges{}
	for i := range existing {
		inst := &existing[i]
		if inst.StartsAt.Before(now) || checkedIn[inst.SessionID] > 0 {
			changes.Detach = append(changes.Detach, inst.SessionID)
		} else {
			changes.Remove = append(changes.Remove, inst.SessionID)
		}
	}
	return changes
}
