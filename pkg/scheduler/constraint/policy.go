package constraint

import (
	"fmt"

	"github.com/paiban/staffplan/pkg/model"
)

// Policy 排班策略
type Policy struct {
	MaxHoursPerWeek    float64 `json:"max_hours_per_week"`
	MinRestHours       float64 `json:"min_rest_hours"`
	MaxConsecutiveDays int     `json:"max_consecutive_days"`
	DefaultSkillLevel  float64 `json:"default_skill_level"`
	EnableFairness     bool    `json:"enable_fairness"`
	// FairnessBaseline 公平性基准天数，0 表示使用当批员工的实际平均值
	FairnessBaseline float64 `json:"fairness_baseline,omitempty"`
}

// DefaultPolicy 默认策略
func DefaultPolicy() Policy {
	return Policy{
		MaxHoursPerWeek:    40,
		MinRestHours:       11,
		MaxConsecutiveDays: 6,
		DefaultSkillLevel:  model.DefaultSkillLevel,
		EnableFairness:     true,
	}
}

// Validate 检查策略取值
func (p *Policy) Validate() error {
	if p.MaxHoursPerWeek <= 0 {
		return fmt.Errorf("每周工时上限必须大于 0")
	}
	if p.MinRestHours < 0 || p.MinRestHours > 24 {
		return fmt.Errorf("最小休息时间 %.1f 超出范围 0-24", p.MinRestHours)
	}
	if p.MaxConsecutiveDays <= 0 {
		return fmt.Errorf("最大连续工作天数必须大于 0")
	}
	if p.DefaultSkillLevel < 0 || p.DefaultSkillLevel > 5 {
		return fmt.Errorf("默认技能门槛 %.1f 超出范围 0-5", p.DefaultSkillLevel)
	}
	if p.FairnessBaseline < 0 {
		return fmt.Errorf("公平性基准不能为负")
	}
	return nil
}

// ConsecutiveLimit 员工的连续工作天数上限，个人约束更严格时取个人值
func (p *Policy) ConsecutiveLimit(e *model.Employee) int {
	limit := p.MaxConsecutiveDays
	if e != nil && e.Constraints != nil && e.Constraints.MaxConsecutiveDays > 0 && e.Constraints.MaxConsecutiveDays < limit {
		limit = e.Constraints.MaxConsecutiveDays
	}
	return limit
}

// RequiredSkill 班次的技能门槛，未指定时取默认值
func (p *Policy) RequiredSkill(req *model.SkillRequirement) float64 {
	if req != nil && req.MinLevel > 0 {
		return req.MinLevel
	}
	if p.DefaultSkillLevel > 0 {
		return p.DefaultSkillLevel
	}
	return model.DefaultSkillLevel
}
