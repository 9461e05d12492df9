// Package constraint 定义资格规则接口、规则过滤器与单次生成的运行统计
package constraint

import (
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

// Type 规则类型标识
type Type string

const (
	TypeApprovedLeave      Type = "approved_leave"
	TypeAlreadyScheduled   Type = "already_scheduled"
	TypeMaxConsecutiveDays Type = "max_consecutive_days"
	TypeMaxHoursPerWeek    Type = "max_hours_per_week"
	TypeMinRest            Type = "min_rest"
	TypeUnavailableHours   Type = "unavailable_hours"
	TypeWeekend            Type = "weekend"
	TypeNightShift         Type = "night_shift"
	TypeSkillLevel         Type = "skill_level"
)

// Rule 资格规则，任意一条不满足即不可安排
type Rule interface {
	// Name 返回规则名称
	Name() string

	// Type 返回规则类型
	Type() Type

	// Check 检查候选人，返回是否满足与原因
	Check(ctx *Context, c *Candidate) (ok bool, reason string)
}

// Candidate 待检查的 (员工, 日期, 班次)
type Candidate struct {
	Employee *model.Employee
	Date     string
	Weekday  time.Weekday
	Shift    *model.Shift
}

// NewCandidate 创建候选项
func NewCandidate(e *model.Employee, s *model.Shift) *Candidate {
	w, _ := model.WeekdayOf(s.Date)
	return &Candidate{Employee: e, Date: s.Date, Weekday: w, Shift: s}
}

// Span 班次在日期上的绝对起止时间
func (c *Candidate) Span() (time.Time, time.Time) {
	d, _ := model.ParseDate(c.Date)
	return c.Shift.Interval().On(d)
}

// Context 规则检查上下文，属于单次生成调用
type Context struct {
	Policy *Policy
	Stats  *RunStatistics

	leaves map[uuid.UUID][]*model.LeaveRequest
}

// NewContext 创建上下文，只保留已批准的请假
func NewContext(policy *Policy, stats *RunStatistics, leaves []*model.LeaveRequest) *Context {
	ctx := &Context{
		Policy: policy,
		Stats:  stats,
		leaves: make(map[uuid.UUID][]*model.LeaveRequest),
	}
	for _, l := range leaves {
		if l.Status == model.LeaveApproved {
			ctx.leaves[l.EmployeeID] = append(ctx.leaves[l.EmployeeID], l)
		}
	}
	return ctx
}

// OnLeave 员工在该日期是否有已批准的请假
func (c *Context) OnLeave(empID uuid.UUID, date string) bool {
	for _, l := range c.leaves[empID] {
		if l.Covers(date) {
			return true
		}
	}
	return false
}

// Violation 单条未通过的规则
type Violation struct {
	Type   Type   `json:"type"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Decision 资格判定结果，列出全部未通过的规则
type Decision struct {
	Eligible   bool        `json:"eligible"`
	Violations []Violation `json:"violations,omitempty"`
}

// Failed 是否因指定规则被拒绝
func (d Decision) Failed(t Type) bool {
	for _, v := range d.Violations {
		if v.Type == t {
			return true
		}
	}
	return false
}
