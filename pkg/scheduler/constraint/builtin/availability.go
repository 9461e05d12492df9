package builtin

import (
	"fmt"

	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/scheduler/constraint"
)

// ApprovedLeaveRule 已批准请假的日期不可排班
type ApprovedLeaveRule struct {
	*BaseRule
}

// NewApprovedLeaveRule 创建请假规则
func NewApprovedLeaveRule() *ApprovedLeaveRule {
	return &ApprovedLeaveRule{NewBaseRule("请假", constraint.TypeApprovedLeave)}
}

// Check 检查候选人
func (r *ApprovedLeaveRule) Check(ctx *constraint.Context, c *constraint.Candidate) (bool, string) {
	if ctx.OnLeave(c.Employee.ID, c.Date) {
		return false, fmt.Sprintf("%s 已批准请假", c.Date)
	}
	return true, ""
}

// AlreadyScheduledRule 每人每天最多一个班次
type AlreadyScheduledRule struct {
	*BaseRule
}

// NewAlreadyScheduledRule 创建重复排班规则
func NewAlreadyScheduledRule() *AlreadyScheduledRule {
	return &AlreadyScheduledRule{NewBaseRule("当日已排班", constraint.TypeAlreadyScheduled)}
}

// Check 检查候选人
func (r *AlreadyScheduledRule) Check(ctx *constraint.Context, c *constraint.Candidate) (bool, string) {
	if ctx.Stats.HasEntryOn(c.Employee.ID, c.Date) {
		return false, fmt.Sprintf("%s 已有排班", c.Date)
	}
	return true, ""
}

// UnavailableHoursRule 班次不能落在员工声明的不可用钟点
type UnavailableHoursRule struct {
	*BaseRule
}

// NewUnavailableHoursRule 创建不可用时段规则
func NewUnavailableHoursRule() *UnavailableHoursRule {
	return &UnavailableHoursRule{NewBaseRule("不可用时段", constraint.TypeUnavailableHours)}
}

// Check 检查候选人
func (r *UnavailableHoursRule) Check(_ *constraint.Context, c *constraint.Candidate) (bool, string) {
	wc := c.Employee.Constraints
	if wc == nil {
		return true, ""
	}
	if n := wc.UnavailableOverlap(c.Shift.Interval().Hours()); n > 0 {
		return false, fmt.Sprintf("班次 %s 有 %d 个钟点不可用", c.Shift.Interval(), n)
	}
	return true, ""
}

// WeekendRule 不能上周末班的员工
type WeekendRule struct {
	*BaseRule
}

// NewWeekendRule 创建周末规则
func NewWeekendRule() *WeekendRule {
	return &WeekendRule{NewBaseRule("周末", constraint.TypeWeekend)}
}

// Check 检查候选人
func (r *WeekendRule) Check(_ *constraint.Context, c *constraint.Candidate) (bool, string) {
	wc := c.Employee.Constraints
	if wc != nil && !wc.CanWorkWeekends && model.IsWeekend(c.Weekday) {
		return false, "不能安排周末班"
	}
	return true, ""
}

// NightShiftRule 不能上夜班的员工
type NightShiftRule struct {
	*BaseRule
}

// NewNightShiftRule 创建夜班规则
func NewNightShiftRule() *NightShiftRule {
	return &NightShiftRule{NewBaseRule("夜班", constraint.TypeNightShift)}
}

// Check 检查候选人
func (r *NightShiftRule) Check(_ *constraint.Context, c *constraint.Candidate) (bool, string) {
	wc := c.Employee.Constraints
	if wc != nil && !wc.CanWorkNightShifts && c.Shift.IsNightShift() {
		return false, fmt.Sprintf("不能安排夜班 %s", c.Shift.Interval())
	}
	return true, ""
}

// SkillLevelRule 班次有技能要求时，综合技能水平不能低于门槛
type SkillLevelRule struct {
	*BaseRule
}

// NewSkillLevelRule 创建技能规则
func NewSkillLevelRule() *SkillLevelRule {
	return &SkillLevelRule{NewBaseRule("技能门槛", constraint.TypeSkillLevel)}
}

// Check 检查候选人
func (r *SkillLevelRule) Check(ctx *constraint.Context, c *constraint.Candidate) (bool, string) {
	req := c.Shift.SkillRequirement
	if req == nil {
		return true, ""
	}
	required := ctx.Policy.RequiredSkill(req)
	level := 0.0
	if c.Employee.Ability != nil {
		level = c.Employee.Ability.SkillLevel()
	}
	if level < required {
		return false, fmt.Sprintf("技能水平 %.2f 低于要求 %.2f", level, required)
	}
	return true, ""
}
