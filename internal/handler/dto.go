package handler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/model"
)

// defaultAbility 能力项缺省值
const defaultAbility = 3

// abilityFields 外部能力键到能力项的映射，键不区分大小写
var abilityFields = map[string]func(*model.Ability) *int{
	"work_skill":       func(a *model.Ability) *int { return &a.WorkSkill },
	"skill":            func(a *model.Ability) *int { return &a.WorkSkill },
	"experience":       func(a *model.Ability) *int { return &a.Experience },
	"customer_service": func(a *model.Ability) *int { return &a.CustomerService },
	"service":          func(a *model.Ability) *int { return &a.CustomerService },
	"flexibility":      func(a *model.Ability) *int { return &a.Flexibility },
	"team_chemistry":   func(a *model.Ability) *int { return &a.TeamChemistry },
	"teamwork":         func(a *model.Ability) *int { return &a.TeamChemistry },
}

// EmployeeInput 员工输入，能力以自由键值提交，在此转换为固定结构
type EmployeeInput struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Department  string                 `json:"department,omitempty"`
	Position    string                 `json:"position,omitempty"`
	HireDate    string                 `json:"hire_date,omitempty"`
	Status      string                 `json:"status,omitempty"`
	Abilities   map[string]int         `json:"abilities,omitempty"`
	Preference  *model.Preference      `json:"preference,omitempty"`
	Constraints *model.WorkConstraints `json:"constraints,omitempty"`
}

// toAbility 校验并转换能力，未提交任何能力时返回 nil，缺项取默认值
func toAbility(field string, in map[string]int, ve *errors.ValidationErrors) *model.Ability {
	if len(in) == 0 {
		return nil
	}
	a := &model.Ability{
		WorkSkill:       defaultAbility,
		Experience:      defaultAbility,
		CustomerService: defaultAbility,
		Flexibility:     defaultAbility,
		TeamChemistry:   defaultAbility,
	}

	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := in[k]
		target, ok := abilityFields[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			ve.AddCode(errors.CodeInvalidInput, field+"."+k, "未知的能力项")
			continue
		}
		if v < 1 || v > 5 {
			ve.AddCode(errors.CodeInvalidInput, field+"."+k, fmt.Sprintf("能力值 %d 超出范围 1-5", v))
			continue
		}
		*target(a) = v
	}
	return a
}

// toEmployees 转换员工列表，ID 为空时生成新 ID
func toEmployees(businessID uuid.UUID, in []EmployeeInput, ve *errors.ValidationErrors) []*model.Employee {
	out := make([]*model.Employee, 0, len(in))
	for i, e := range in {
		field := fmt.Sprintf("employees[%d]", i)
		id := uuid.New()
		if e.ID != "" {
			parsed, err := uuid.Parse(e.ID)
			if err != nil {
				ve.AddCode(errors.CodeInvalidInput, field+".id", "无效的员工ID格式")
				continue
			}
			id = parsed
		}
		if e.HireDate != "" {
			if _, err := model.ParseDate(e.HireDate); err != nil {
				ve.AddCode(errors.CodeInvalidInput, field+".hire_date", "日期格式无效，应为YYYY-MM-DD")
			}
		}
		status := e.Status
		if status == "" {
			status = "active"
		}
		out = append(out, &model.Employee{
			BaseModel:   model.BaseModel{ID: id},
			BusinessID:  businessID,
			Name:        e.Name,
			Department:  e.Department,
			Position:    e.Position,
			HireDate:    e.HireDate,
			Status:      status,
			Ability:     toAbility(field+".abilities", e.Abilities, ve),
			Preference:  e.Preference,
			Constraints: e.Constraints,
		})
	}
	return out
}

// parseBusinessID 解析商户ID，空值返回 uuid.Nil
func parseBusinessID(s string, ve *errors.ValidationErrors) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		ve.AddCode(errors.CodeInvalidInput, "business_id", "无效的商户ID格式")
		return uuid.Nil
	}
	return id
}

// dateRange 校验请求中的日期范围
func dateRange(start, end string, ve *errors.ValidationErrors) model.DateRange {
	dr := model.DateRange{StartDate: start, EndDate: end}
	if err := dr.Validate(); err != nil {
		ve.AddCode(errors.CodeInvalidDateRange, "date_range", err.Error())
	}
	return dr
}
