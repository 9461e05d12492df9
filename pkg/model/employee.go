package model

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Employee 员工（引擎只读取快照）
type Employee struct {
	BaseModel
	BusinessID uuid.UUID `json:"business_id" db:"business_id"`
	Name       string    `json:"name" db:"name"`
	Department string    `json:"department,omitempty" db:"department"`
	Position   string    `json:"position,omitempty" db:"position"`
	HireDate   string    `json:"hire_date,omitempty" db:"hire_date"` // YYYY-MM-DD
	Status     string    `json:"status" db:"status"`                 // active/inactive

	Ability     *Ability         `json:"ability,omitempty" db:"ability"`
	Preference  *Preference      `json:"preference,omitempty" db:"preference"`
	Constraints *WorkConstraints `json:"constraints,omitempty" db:"constraints"`
}

// Ability 能力评分，每项 1-5
type Ability struct {
	WorkSkill       int `json:"work_skill"`
	Experience      int `json:"experience"`
	CustomerService int `json:"customer_service"`
	Flexibility     int `json:"flexibility"`
	TeamChemistry   int `json:"team_chemistry"`
}

// Preference 工作偏好
type Preference struct {
	PreferDays         []time.Weekday `json:"prefer_days,omitempty"`
	AvoidDays          []time.Weekday `json:"avoid_days,omitempty"`
	PreferredTimeSlots []int          `json:"preferred_time_slots,omitempty"` // 偏好的钟点 0-23
}

// WorkConstraints 员工个人约束
type WorkConstraints struct {
	MaxConsecutiveDays   int   `json:"max_consecutive_days,omitempty"`
	CanWorkWeekends      bool  `json:"can_work_weekends"`
	CanWorkNightShifts   bool  `json:"can_work_night_shifts"`
	UnavailableTimeSlots []int `json:"unavailable_time_slots,omitempty"` // 不可用钟点 0-23
}

// IsActive 检查员工是否在职，空状态视为在职
func (e *Employee) IsActive() bool {
	return e.Status == "" || e.Status == "active"
}

// YearsOfService 截至某日的工龄（年）
func (e *Employee) YearsOfService(asOf string) float64 {
	if e.HireDate == "" {
		return 0
	}
	hired, err := ParseDate(e.HireDate)
	if err != nil {
		return 0
	}
	at, err := ParseDate(asOf)
	if err != nil || at.Before(hired) {
		return 0
	}
	return at.Sub(hired).Hours() / 24 / 365.25
}

// Validate 检查能力评分范围
func (a *Ability) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"work_skill", a.WorkSkill},
		{"experience", a.Experience},
		{"customer_service", a.CustomerService},
		{"flexibility", a.Flexibility},
		{"team_chemistry", a.TeamChemistry},
	}
	for _, f := range fields {
		if f.value < 1 || f.value > 5 {
			return fmt.Errorf("能力 %s=%d 超出范围 1-5", f.name, f.value)
		}
	}
	return nil
}

// Weighted 加权能力分 (3*技能 + 2*经验 + 2*服务 + 灵活 + 协作) / 9
func (a *Ability) Weighted() float64 {
	return float64(3*a.WorkSkill+2*a.Experience+2*a.CustomerService+a.Flexibility+a.TeamChemistry) / 9.0
}

// SkillLevel 综合技能水平 (技能 + 经验 + 服务) / 3
func (a *Ability) SkillLevel() float64 {
	return float64(a.WorkSkill+a.Experience+a.CustomerService) / 3.0
}

// Prefers 是否偏好该星期
func (p *Preference) Prefers(w time.Weekday) bool {
	return containsWeekday(p.PreferDays, w)
}

// Avoids 是否回避该星期
func (p *Preference) Avoids(w time.Weekday) bool {
	return containsWeekday(p.AvoidDays, w)
}

// PreferredHourOverlap 统计与偏好钟点重叠的小时数
func (p *Preference) PreferredHourOverlap(hours []int) int {
	return countHourOverlap(p.PreferredTimeSlots, hours)
}

// UnavailableOverlap 统计落在不可用钟点的小时数
func (c *WorkConstraints) UnavailableOverlap(hours []int) int {
	return countHourOverlap(c.UnavailableTimeSlots, hours)
}

func containsWeekday(days []time.Weekday, w time.Weekday) bool {
	for _, d := range days {
		if d == w {
			return true
		}
	}
	return false
}

func countHourOverlap(set []int, hours []int) int {
	if len(set) == 0 {
		return 0
	}
	lookup := make(map[int]bool, len(set))
	for _, h := range set {
		lookup[h] = true
	}
	n := 0
	for _, h := range hours {
		if lookup[h] {
			n++
		}
	}
	return n
}

// LeaveStatus 请假状态
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// LeaveRequest 请假申请
type LeaveRequest struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	EmployeeID uuid.UUID   `json:"employee_id" db:"employee_id"`
	StartDate  string      `json:"start_date" db:"start_date"`
	EndDate    string      `json:"end_date" db:"end_date"`
	Status     LeaveStatus `json:"status" db:"status"`
	Reason     string      `json:"reason,omitempty" db:"reason"`
}

// Covers 已批准且覆盖该日期
func (l *LeaveRequest) Covers(date string) bool {
	return l.Status == LeaveApproved && date >= l.StartDate && date <= l.EndDate
}

// ChemistryEdge 员工之间的配合度，EmployeeA 始终是较小的 ID
type ChemistryEdge struct {
	EmployeeA uuid.UUID `json:"employee_a" db:"employee_a"`
	EmployeeB uuid.UUID `json:"employee_b" db:"employee_b"`
	Score     int       `json:"score" db:"score"` // 1-5
}

// ChemistryConflictThreshold 配合度 <= 该值视为冲突
const ChemistryConflictThreshold = 2

// NewChemistryEdge 创建规范化的配合度边
func NewChemistryEdge(a, b uuid.UUID, score int) ChemistryEdge {
	a, b = orderPair(a, b)
	return ChemistryEdge{EmployeeA: a, EmployeeB: b, Score: score}
}

// IsConflict 是否为需要避免的组合
func (e ChemistryEdge) IsConflict() bool {
	return e.Score <= ChemistryConflictThreshold
}

// Validate 检查边的合法性
func (e ChemistryEdge) Validate() error {
	if e.EmployeeA == e.EmployeeB {
		return fmt.Errorf("配合度不能指向同一员工 %s", e.EmployeeA)
	}
	if e.Score < 1 || e.Score > 5 {
		return fmt.Errorf("配合度 %d 超出范围 1-5", e.Score)
	}
	return nil
}

type pairKey struct {
	a, b uuid.UUID
}

func orderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

// ChemistryIndex 配合度查询索引
type ChemistryIndex struct {
	scores map[pairKey]int
}

// NewChemistryIndex 构建索引，重复的边以后者为准
func NewChemistryIndex(edges []ChemistryEdge) *ChemistryIndex {
	idx := &ChemistryIndex{scores: make(map[pairKey]int, len(edges))}
	for _, e := range edges {
		a, b := orderPair(e.EmployeeA, e.EmployeeB)
		idx.scores[pairKey{a, b}] = e.Score
	}
	return idx
}

// Score 查询两人配合度，未知时返回 0, false
func (idx *ChemistryIndex) Score(a, b uuid.UUID) (int, bool) {
	if idx == nil {
		return 0, false
	}
	x, y := orderPair(a, b)
	s, ok := idx.scores[pairKey{x, y}]
	return s, ok
}

// Conflicts 两人是否存在配合冲突
func (idx *ChemistryIndex) Conflicts(a, b uuid.UUID) bool {
	s, ok := idx.Score(a, b)
	return ok && s <= ChemistryConflictThreshold
}
