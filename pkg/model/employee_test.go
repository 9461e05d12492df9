package model

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEmployee_IsActive(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected bool
	}{
		{"active员工", "active", true},
		{"inactive员工", "inactive", false},
		{"空状态", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Employee{Status: tt.status}
			if result := e.IsActive(); result != tt.expected {
				t.Errorf("IsActive() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestEmployee_YearsOfService(t *testing.T) {
	e := &Employee{HireDate: "2020-03-01"}
	years := e.YearsOfService("2024-03-01")
	if math.Abs(years-4) > 0.01 {
		t.Errorf("YearsOfService() = %v, expected ~4", years)
	}
	if got := (&Employee{}).YearsOfService("2024-03-01"); got != 0 {
		t.Errorf("无入职日期应为 0, got %v", got)
	}
	if got := e.YearsOfService("2019-01-01"); got != 0 {
		t.Errorf("入职前应为 0, got %v", got)
	}
}

func TestAbility(t *testing.T) {
	a := &Ability{WorkSkill: 5, Experience: 4, CustomerService: 3, Flexibility: 2, TeamChemistry: 1}

	if err := a.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	// (15 + 8 + 6 + 2 + 1) / 9
	if got := a.Weighted(); math.Abs(got-32.0/9.0) > 1e-9 {
		t.Errorf("Weighted() = %v", got)
	}
	if got := a.SkillLevel(); got != 4 {
		t.Errorf("SkillLevel() = %v, expected 4", got)
	}

	bad := &Ability{WorkSkill: 6, Experience: 1, CustomerService: 1, Flexibility: 1, TeamChemistry: 1}
	if err := bad.Validate(); err == nil {
		t.Error("超出范围应返回错误")
	}
}

func TestPreference(t *testing.T) {
	p := &Preference{
		PreferDays:         []time.Weekday{time.Monday, time.Tuesday},
		AvoidDays:          []time.Weekday{time.Sunday},
		PreferredTimeSlots: []int{9, 10, 11},
	}
	if !p.Prefers(time.Monday) || p.Prefers(time.Friday) {
		t.Error("Prefers() 结果错误")
	}
	if !p.Avoids(time.Sunday) {
		t.Error("Avoids() 结果错误")
	}
	if got := p.PreferredHourOverlap([]int{8, 9, 10}); got != 2 {
		t.Errorf("PreferredHourOverlap() = %d, expected 2", got)
	}
}

func TestLeaveRequest_Covers(t *testing.T) {
	l := &LeaveRequest{StartDate: "2024-03-01", EndDate: "2024-03-03", Status: LeaveApproved}
	if !l.Covers("2024-03-02") || !l.Covers("2024-03-03") {
		t.Error("应覆盖区间内日期")
	}
	if l.Covers("2024-03-04") {
		t.Error("不应覆盖区间外日期")
	}
	l.Status = LeavePending
	if l.Covers("2024-03-02") {
		t.Error("未批准的请假不生效")
	}
}

func TestChemistryEdge_Canonical(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	e := NewChemistryEdge(b, a, 2)
	if e.EmployeeA != a || e.EmployeeB != b {
		t.Errorf("边未规范化: %v", e)
	}
	if !e.IsConflict() {
		t.Error("配合度 2 应为冲突")
	}

	idx := NewChemistryIndex([]ChemistryEdge{e, NewChemistryEdge(a, uuid.New(), 5)})
	if !idx.Conflicts(a, b) || !idx.Conflicts(b, a) {
		t.Error("索引查询应与顺序无关")
	}
	if idx.Conflicts(a, uuid.New()) {
		t.Error("未知组合不应冲突")
	}
	var nilIdx *ChemistryIndex
	if nilIdx.Conflicts(a, b) {
		t.Error("空索引不应冲突")
	}
}

func TestDateHelpers(t *testing.T) {
	r := DateRange{StartDate: "2024-02-27", EndDate: "2024-03-02"}
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	days := r.Days()
	if len(days) != 5 || days[2] != "2024-02-29" || r.Len() != 5 {
		t.Errorf("Days() = %v", days)
	}
	if err := (DateRange{StartDate: "2024-03-02", EndDate: "2024-03-01"}).Validate(); err == nil {
		t.Error("倒置的日期范围应返回错误")
	}
	if got := ISOWeekKey("2024-03-01"); got != "2024-W09" {
		t.Errorf("ISOWeekKey() = %s", got)
	}
	if got := AddDays("2024-12-31", 1); got != "2025-01-01" {
		t.Errorf("AddDays() = %s", got)
	}

	lookback := []struct {
		start string
		days  int
		want  string
	}{
		{"2024-03-04", 6, "2024-02-27"}, // 周一，前推 6 天
		{"2024-03-07", 1, "2024-03-04"}, // 周四，回到本周一
		{"2024-03-04", 0, "2024-03-03"}, // 至少前推一天
	}
	for _, tt := range lookback {
		got := DateRange{StartDate: tt.start, EndDate: "2024-03-10"}.WithLookback(tt.days)
		if got.StartDate != tt.want || got.EndDate != "2024-03-10" {
			t.Errorf("WithLookback(%s, %d) = %+v, expected start %s", tt.start, tt.days, got, tt.want)
		}
	}
}

func TestTemplate_AddOverride(t *testing.T) {
	tpl := NewTemplate(uuid.New(), "默认模板")
	if err := tpl.AddOverride(&ScheduleOverride{Date: "2024-03-01", IsActive: true, IsClosed: true}); err != nil {
		t.Fatal(err)
	}
	if err := tpl.AddOverride(&ScheduleOverride{Date: "2024-03-01"}); err == nil {
		t.Error("同一日期重复添加应失败")
	}
	if tpl.Override("2024-03-01").TemplateID != tpl.ID {
		t.Error("例外设置应关联模板")
	}
}

func TestSkillRequirement_MatchRatio(t *testing.T) {
	a := &Ability{WorkSkill: 4, Experience: 2, CustomerService: 3}

	req := &SkillRequirement{MinWorkSkill: 3, MinExperience: 3}
	if got := req.MatchRatio(a); got != 0.5 {
		t.Errorf("MatchRatio() = %v, expected 0.5", got)
	}
	if got := (&SkillRequirement{}).MatchRatio(a); got != 1 {
		t.Errorf("仅综合门槛时 MatchRatio() = %v, expected 1", got)
	}
	if got := (&SkillRequirement{}).RequiredLevel(); got != DefaultSkillLevel {
		t.Errorf("RequiredLevel() = %v", got)
	}
}
