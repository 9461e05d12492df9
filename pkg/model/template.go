package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultSkillLevel 技能要求未指定最低值时的默认门槛
const DefaultSkillLevel = 3.0

// SkillRequirement 技能要求
type SkillRequirement struct {
	MinLevel           float64 `json:"min_level,omitempty"` // 综合技能门槛，0 表示默认 3
	MinWorkSkill       int     `json:"min_work_skill,omitempty"`
	MinExperience      int     `json:"min_experience,omitempty"`
	MinCustomerService int     `json:"min_customer_service,omitempty"`
}

// RequiredLevel 返回综合技能门槛
func (r *SkillRequirement) RequiredLevel() float64 {
	if r.MinLevel > 0 {
		return r.MinLevel
	}
	return DefaultSkillLevel
}

// MatchRatio 满足的子项比例（0-1），未设置子项时按综合门槛判断
func (r *SkillRequirement) MatchRatio(a *Ability) float64 {
	if a == nil {
		return 0
	}
	subs := [][2]int{
		{r.MinWorkSkill, a.WorkSkill},
		{r.MinExperience, a.Experience},
		{r.MinCustomerService, a.CustomerService},
	}
	total, met := 0, 0
	for _, s := range subs {
		if s[0] <= 0 {
			continue
		}
		total++
		if s[1] >= s[0] {
			met++
		}
	}
	if total == 0 {
		if a.SkillLevel() >= r.RequiredLevel() {
			return 1
		}
		return 0
	}
	return float64(met) / float64(total)
}

// HourlySlot 按小时的人力规则
type HourlySlot struct {
	Hour             int               `json:"hour"` // 0-23
	RequiredStaff    int               `json:"required_staff"`
	PreferredStaff   int               `json:"preferred_staff,omitempty"`
	Priority         Priority          `json:"priority,omitempty"`
	SkillRequirement *SkillRequirement `json:"skill_requirement,omitempty"`
}

// DailyHours 某个星期几的营业时间
type DailyHours struct {
	Weekday     time.Weekday `json:"weekday"`
	IsOpen      bool         `json:"is_open"`
	OpenTime    ClockTime    `json:"open_time"`
	CloseTime   ClockTime    `json:"close_time"`
	BreakStart  *ClockTime   `json:"break_start,omitempty"`
	BreakEnd    *ClockTime   `json:"break_end,omitempty"`
	MinStaff    int          `json:"min_staff"`
	MaxStaff    int          `json:"max_staff,omitempty"`
	HourlySlots []HourlySlot `json:"hourly_slots,omitempty"`
}

// ScheduleOverride 特定日期的例外设置
type ScheduleOverride struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	TemplateID  uuid.UUID    `json:"template_id" db:"template_id"`
	Date        string       `json:"date" db:"date"`
	IsActive    bool         `json:"is_active" db:"is_active"`
	IsClosed    bool         `json:"is_closed" db:"is_closed"`
	Reason      string       `json:"reason,omitempty" db:"reason"`
	OpenTime    *ClockTime   `json:"open_time,omitempty" db:"open_time"`
	CloseTime   *ClockTime   `json:"close_time,omitempty" db:"close_time"`
	MinStaff    *int         `json:"min_staff,omitempty" db:"min_staff"`
	MaxStaff    *int         `json:"max_staff,omitempty" db:"max_staff"`
	HourlySlots []HourlySlot `json:"hourly_slots,omitempty" db:"hourly_slots"`
}

// HasCustomHours 是否替换了营业时间
func (o *ScheduleOverride) HasCustomHours() bool {
	return o.OpenTime != nil && o.CloseTime != nil
}

// OperatingHoursTemplate 营业时间模板，每个商户一份
type OperatingHoursTemplate struct {
	BaseModel
	BusinessID uuid.UUID                    `json:"business_id" db:"business_id"`
	Name       string                       `json:"name" db:"name"`
	Days       [7]*DailyHours               `json:"days" db:"days"`
	Overrides  map[string]*ScheduleOverride `json:"overrides,omitempty" db:"-"`
}

// NewTemplate 创建空模板（所有日期默认休息）
func NewTemplate(businessID uuid.UUID, name string) *OperatingHoursTemplate {
	return &OperatingHoursTemplate{
		BaseModel:  NewBaseModel(),
		BusinessID: businessID,
		Name:       name,
		Overrides:  make(map[string]*ScheduleOverride),
	}
}

// Day 返回星期几的营业时间，未配置返回 nil
func (t *OperatingHoursTemplate) Day(w time.Weekday) *DailyHours {
	if t == nil || w < time.Sunday || w > time.Saturday {
		return nil
	}
	return t.Days[w]
}

// SetDay 设置某个星期几的营业时间
func (t *OperatingHoursTemplate) SetDay(d *DailyHours) {
	t.Days[d.Weekday] = d
}

// Override 返回某日期的例外设置
func (t *OperatingHoursTemplate) Override(date string) *ScheduleOverride {
	if t == nil || t.Overrides == nil {
		return nil
	}
	return t.Overrides[date]
}

// AddOverride 添加例外设置，同一日期只能有一条
func (t *OperatingHoursTemplate) AddOverride(o *ScheduleOverride) error {
	if _, err := ParseDate(o.Date); err != nil {
		return fmt.Errorf("例外日期无效: %w", err)
	}
	if t.Overrides == nil {
		t.Overrides = make(map[string]*ScheduleOverride)
	}
	if _, exists := t.Overrides[o.Date]; exists {
		return fmt.Errorf("模板在 %s 已存在例外设置", o.Date)
	}
	o.TemplateID = t.ID
	t.Overrides[o.Date] = o
	return nil
}

// Validate 检查模板数据
func (t *OperatingHoursTemplate) Validate() error {
	for i, d := range t.Days {
		if d == nil {
			continue
		}
		if int(d.Weekday) != i {
			return fmt.Errorf("第 %d 天的营业时间标记为星期 %d", i, d.Weekday)
		}
		if d.MinStaff < 0 || (d.MaxStaff > 0 && d.MaxStaff < d.MinStaff) {
			return fmt.Errorf("星期 %d 人数范围无效: %d-%d", i, d.MinStaff, d.MaxStaff)
		}
		if err := validateSlots(d.HourlySlots); err != nil {
			return fmt.Errorf("星期 %d: %w", i, err)
		}
	}
	return nil
}

func validateSlots(slots []HourlySlot) error {
	seen := make(map[int]bool, len(slots))
	for _, s := range slots {
		if s.Hour < 0 || s.Hour > 23 {
			return fmt.Errorf("时段钟点 %d 超出范围", s.Hour)
		}
		if seen[s.Hour] {
			return fmt.Errorf("时段钟点 %d 重复", s.Hour)
		}
		seen[s.Hour] = true
		if s.RequiredStaff < 0 {
			return fmt.Errorf("时段 %d 需求人数为负", s.Hour)
		}
		if !s.Priority.IsValid() {
			return fmt.Errorf("时段 %d 优先级 %q 无效", s.Hour, s.Priority)
		}
	}
	return nil
}

// SortSlots 按钟点排序并返回副本
func SortSlots(slots []HourlySlot) []HourlySlot {
	sorted := make([]HourlySlot, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Hour < sorted[j].Hour
	})
	return sorted
}
