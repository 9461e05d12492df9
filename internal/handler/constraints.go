package handler

import (
	"net/http"
	"strconv"

	"github.com/paiban/staffplan/pkg/scheduler/constraint"
	"github.com/paiban/staffplan/pkg/scheduler/scoring"
)

// RuleParam 规则参数，Value 为当前生效值
type RuleParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, bool
	Description string `json:"description"`
	Value       string `json:"value"`
	Source      string `json:"source"` // policy 或 employee
}

// RuleDefinition 资格规则说明
type RuleDefinition struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Params      []RuleParam `json:"params"`
}

// ConstraintsResponse 规则库响应
type ConstraintsResponse struct {
	Rules   []RuleDefinition  `json:"rules"`
	Policy  constraint.Policy `json:"policy"`
	Weights scoring.Weights   `json:"weights"`
}

// ruleInfo 内置规则的分类与说明
var ruleInfo = map[constraint.Type]struct {
	category    string
	description string
}{
	constraint.TypeApprovedLeave:      {"时间限制", "已批准请假覆盖的日期不安排排班。"},
	constraint.TypeAlreadyScheduled:   {"时间限制", "员工同一天只能有一条有效排班。"},
	constraint.TypeMaxConsecutiveDays: {"休息保障", "连续工作天数达到上限后必须休息，员工个人上限更小时以个人为准。"},
	constraint.TypeMaxHoursPerWeek:    {"工时限制", "同一 ISO 周累计工时加上本班次不得超过上限。"},
	constraint.TypeMinRest:            {"休息保障", "与前后班次之间的间隔不得小于最小休息时间。"},
	constraint.TypeUnavailableHours:   {"时间限制", "班次不得与员工标记的不可用时段重叠。"},
	constraint.TypeWeekend:            {"排班模式", "不接受周末班的员工不安排周六、周日。"},
	constraint.TypeNightShift:         {"排班模式", "不接受夜班的员工不安排夜班。"},
	constraint.TypeSkillLevel:         {"资质要求", "员工能力均值需达到班次要求的技能等级。"},
}

// ListConstraints 返回当前过滤器中的规则及其生效参数
func (h *Handler) ListConstraints(w http.ResponseWriter, r *http.Request) {
	rules := h.filter.Rules()
	resp := ConstraintsResponse{
		Rules:   make([]RuleDefinition, 0, len(rules)),
		Policy:  h.policy,
		Weights: scoring.DefaultWeights(),
	}
	for _, rule := range rules {
		info := ruleInfo[rule.Type()]
		resp.Rules = append(resp.Rules, RuleDefinition{
			Name:        string(rule.Type()),
			DisplayName: rule.Name(),
			Category:    info.category,
			Description: info.description,
			Params:      ruleParams(rule.Type(), h.policy),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func ruleParams(t constraint.Type, p constraint.Policy) []RuleParam {
	switch t {
	case constraint.TypeMaxConsecutiveDays:
		return []RuleParam{
			{Name: "max_consecutive_days", Type: "int", Description: "最大连续天数", Value: strconv.Itoa(p.MaxConsecutiveDays), Source: "policy"},
			{Name: "constraints.max_consecutive_days", Type: "int", Description: "员工个人上限", Source: "employee"},
		}
	case constraint.TypeMaxHoursPerWeek:
		return []RuleParam{
			{Name: "max_hours_per_week", Type: "float", Description: "每周最大工时(小时)", Value: formatFloat(p.MaxHoursPerWeek), Source: "policy"},
		}
	case constraint.TypeMinRest:
		return []RuleParam{
			{Name: "min_rest_hours", Type: "float", Description: "最小休息时间(小时)", Value: formatFloat(p.MinRestHours), Source: "policy"},
		}
	case constraint.TypeSkillLevel:
		return []RuleParam{
			{Name: "default_skill_level", Type: "float", Description: "班次未指定时的技能门槛", Value: formatFloat(p.DefaultSkillLevel), Source: "policy"},
		}
	case constraint.TypeWeekend:
		return []RuleParam{
			{Name: "constraints.can_work_weekends", Type: "bool", Description: "是否接受周末班", Source: "employee"},
		}
	case constraint.TypeNightShift:
		return []RuleParam{
			{Name: "constraints.can_work_night_shifts", Type: "bool", Description: "是否接受夜班", Source: "employee"},
		}
	case constraint.TypeUnavailableHours:
		return []RuleParam{
			{Name: "constraints.unavailable_time_slots", Type: "array", Description: "不可用时段", Source: "employee"},
		}
	}
	return []RuleParam{}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
