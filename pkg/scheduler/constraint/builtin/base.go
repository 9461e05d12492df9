// Package builtin 提供内置资格规则
package builtin

import (
	"github.com/paiban/staffplan/pkg/scheduler/constraint"
)

// BaseRule 规则基类
type BaseRule struct {
	name string
	typ  constraint.Type
}

// NewBaseRule 创建基础规则
func NewBaseRule(name string, typ constraint.Type) *BaseRule {
	return &BaseRule{name: name, typ: typ}
}

// Name 返回规则名称
func (r *BaseRule) Name() string { return r.name }

// Type 返回规则类型
func (r *BaseRule) Type() constraint.Type { return r.typ }

// DefaultRules 返回全部内置规则
func DefaultRules() []constraint.Rule {
	return []constraint.Rule{
		NewApprovedLeaveRule(),
		NewAlreadyScheduledRule(),
		NewMaxConsecutiveDaysRule(),
		NewMaxHoursPerWeekRule(),
		NewMinRestRule(),
		NewUnavailableHoursRule(),
		NewWeekendRule(),
		NewNightShiftRule(),
		NewSkillLevelRule(),
	}
}

// NewDefaultFilter 创建注册了全部内置规则的过滤器
func NewDefaultFilter() *constraint.Filter {
	return constraint.NewFilter(DefaultRules()...)
}
