package builtin

import (
	"fmt"

	"github.com/paiban/staffplan/pkg/scheduler/constraint"
)

// MaxConsecutiveDaysRule 最大连续工作天数
type MaxConsecutiveDaysRule struct {
	*BaseRule
}

// NewMaxConsecutiveDaysRule 创建连续工作天数规则
func NewMaxConsecutiveDaysRule() *MaxConsecutiveDaysRule {
	return &MaxConsecutiveDaysRule{NewBaseRule("最大连续工作天数", constraint.TypeMaxConsecutiveDays)}
}

// Check 检查候选人
func (r *MaxConsecutiveDaysRule) Check(ctx *constraint.Context, c *constraint.Candidate) (bool, string) {
	limit := ctx.Policy.ConsecutiveLimit(c.Employee)
	run := ctx.Stats.ConsecutiveAround(c.Employee.ID, c.Date)
	if run > limit {
		return false, fmt.Sprintf("将连续工作 %d 天，超过上限 %d 天", run, limit)
	}
	return true, ""
}

// MaxHoursPerWeekRule 每周工时上限，加上本班次后达到上限即拒绝
type MaxHoursPerWeekRule struct {
	*BaseRule
}

// NewMaxHoursPerWeekRule 创建周工时规则
func NewMaxHoursPerWeekRule() *MaxHoursPerWeekRule {
	return &MaxHoursPerWeekRule{NewBaseRule("每周最大工时", constraint.TypeMaxHoursPerWeek)}
}

// Check 检查候选人
func (r *MaxHoursPerWeekRule) Check(ctx *constraint.Context, c *constraint.Candidate) (bool, string) {
	week := ctx.Stats.WeekHours(c.Employee.ID, c.Date)
	total := week + c.Shift.DurationHours()
	if total >= ctx.Policy.MaxHoursPerWeek {
		return false, fmt.Sprintf("本周工时将达到 %.1f 小时，上限 %.1f 小时", total, ctx.Policy.MaxHoursPerWeek)
	}
	return true, ""
}

// MinRestRule 与已知班次之间的最小休息时间
type MinRestRule struct {
	*BaseRule
}

// NewMinRestRule 创建最小休息规则
func NewMinRestRule() *MinRestRule {
	return &MinRestRule{NewBaseRule("班次间最小休息", constraint.TypeMinRest)}
}

// Check 检查候选人
func (r *MinRestRule) Check(ctx *constraint.Context, c *constraint.Candidate) (bool, string) {
	start, end := c.Span()
	rest := ctx.Stats.MinRestHours(c.Employee.ID, start, end)
	if rest < ctx.Policy.MinRestHours {
		return false, fmt.Sprintf("班次间隔仅 %.1f 小时，少于要求的 %.1f 小时", rest, ctx.Policy.MinRestHours)
	}
	return true, ""
}
