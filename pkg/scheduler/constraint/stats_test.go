package constraint

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

func interval(start, end string) model.ShiftInterval {
	return model.NewInterval(model.MustClock(start), model.MustClock(end))
}

func TestRunStatistics_SeedAndRecord(t *testing.T) {
	stats := NewRunStatistics()
	emp := uuid.New()

	stats.Seed(&model.ScheduleEntry{
		EmployeeID: emp, Date: "2024-03-04",
		StartTime: model.MustClock("09:00"), EndTime: model.MustClock("17:00"),
		Status: model.EntryScheduled,
	})
	stats.Seed(&model.ScheduleEntry{
		EmployeeID: emp, Date: "2024-03-05",
		StartTime: model.MustClock("09:00"), EndTime: model.MustClock("17:00"),
		Status: model.EntryCancelled,
	})
	stats.Record(emp, "2024-03-05", interval("10:00", "14:00"))

	s := stats.Lookup(emp)
	if s.ScheduledDays != 1 || s.RunHours != 4 {
		t.Errorf("已有排班不应计入本次统计: days=%d hours=%v", s.ScheduledDays, s.RunHours)
	}
	if got := stats.WeekHours(emp, "2024-03-06"); got != 12 {
		t.Errorf("WeekHours() = %v, expected 12", got)
	}
	if !stats.HasEntryOn(emp, "2024-03-04") || !stats.HasEntryOn(emp, "2024-03-05") {
		t.Error("HasEntryOn() 应包含已有和新排班")
	}
	if s.LastDate != "2024-03-05" {
		t.Errorf("LastDate = %s", s.LastDate)
	}
	if stats.Lookup(uuid.New()) != nil {
		t.Error("未知员工应返回 nil")
	}
}

func TestRunStatistics_Consecutive(t *testing.T) {
	stats := NewRunStatistics()
	emp := uuid.New()
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-05"} {
		stats.Record(emp, d, interval("09:00", "13:00"))
	}

	if got := stats.ConsecutiveBefore(emp, "2024-03-04"); got != 3 {
		t.Errorf("ConsecutiveBefore() = %d, expected 3", got)
	}
	if got := stats.ConsecutiveAround(emp, "2024-03-04"); got != 5 {
		t.Errorf("ConsecutiveAround() = %d, expected 5", got)
	}
	if got := stats.ConsecutiveAround(uuid.New(), "2024-03-04"); got != 1 {
		t.Errorf("无记录时 ConsecutiveAround() = %d", got)
	}
}

func TestRunStatistics_MinRestHours(t *testing.T) {
	stats := NewRunStatistics()
	emp := uuid.New()
	stats.Record(emp, "2024-03-01", interval("22:00", "06:00"))

	at := func(date, clock string) time.Time {
		d, _ := model.ParseDate(date)
		start, _ := model.NewInterval(model.MustClock(clock), model.MustClock(clock)).On(d)
		return start
	}

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected float64
	}{
		{"夜班结束后 8 小时", at("2024-03-02", "14:00"), at("2024-03-02", "18:00"), 8},
		{"与夜班重叠", at("2024-03-02", "05:00"), at("2024-03-02", "09:00"), 0},
		{"夜班开始前", at("2024-03-01", "08:00"), at("2024-03-01", "12:00"), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stats.MinRestHours(emp, tt.start, tt.end); got != tt.expected {
				t.Errorf("MinRestHours() = %v, expected %v", got, tt.expected)
			}
		})
	}

	if got := stats.MinRestHours(uuid.New(), at("2024-03-02", "09:00"), at("2024-03-02", "10:00")); !math.IsInf(got, 1) {
		t.Errorf("无记录时应为 +Inf, got %v", got)
	}
}

func TestRunStatistics_AverageScheduledDays(t *testing.T) {
	stats := NewRunStatistics()
	a, b := uuid.New(), uuid.New()
	stats.Record(a, "2024-03-01", interval("09:00", "13:00"))
	stats.Record(a, "2024-03-02", interval("09:00", "13:00"))
	stats.Record(a, "2024-03-03", interval("09:00", "13:00"))

	if got := stats.AverageScheduledDays([]uuid.UUID{a, b}); got != 1.5 {
		t.Errorf("AverageScheduledDays() = %v, expected 1.5", got)
	}
	if got := stats.AverageScheduledDays(nil); got != 0 {
		t.Errorf("空列表应为 0, got %v", got)
	}
}

func TestPolicy(t *testing.T) {
	p := DefaultPolicy()
	if err := p.Validate(); err != nil {
		t.Fatalf("默认策略应合法: %v", err)
	}

	e := &model.Employee{Constraints: &model.WorkConstraints{MaxConsecutiveDays: 3}}
	if got := p.ConsecutiveLimit(e); got != 3 {
		t.Errorf("个人更严格时应取个人值, got %d", got)
	}
	e.Constraints.MaxConsecutiveDays = 10
	if got := p.ConsecutiveLimit(e); got != 6 {
		t.Errorf("个人更宽松时应取策略值, got %d", got)
	}

	if got := p.RequiredSkill(&model.SkillRequirement{}); got != 3 {
		t.Errorf("RequiredSkill() = %v", got)
	}
	if got := p.RequiredSkill(&model.SkillRequirement{MinLevel: 4}); got != 4 {
		t.Errorf("RequiredSkill() = %v", got)
	}

	bad := p
	bad.MaxHoursPerWeek = 0
	if bad.Validate() == nil {
		t.Error("周工时为 0 应非法")
	}
}

type stubRule struct {
	typ  Type
	pass bool
}

func (r stubRule) Name() string { return string(r.typ) }
func (r stubRule) Type() Type   { return r.typ }
func (r stubRule) Check(*Context, *Candidate) (bool, string) {
	if r.pass {
		return true, ""
	}
	return false, "拒绝"
}

func TestFilter_Evaluate(t *testing.T) {
	f := NewFilter(
		stubRule{typ: "a", pass: true},
		stubRule{typ: "b", pass: false},
		stubRule{typ: "c", pass: false},
	)
	policy := DefaultPolicy()
	ctx := NewContext(&policy, NewRunStatistics(), nil)
	shift := &model.Shift{Date: "2024-03-01", StartTime: model.MustClock("09:00"), EndTime: model.MustClock("13:00")}

	d := f.Evaluate(ctx, NewCandidate(&model.Employee{BaseModel: model.NewBaseModel()}, shift))
	if d.Eligible {
		t.Fatal("存在失败规则时不应通过")
	}
	if len(d.Violations) != 2 || !d.Failed("b") || !d.Failed("c") {
		t.Errorf("应报告全部失败规则: %+v", d.Violations)
	}

	f.Register(stubRule{typ: "b", pass: true})
	f.Unregister("c")
	if len(f.Rules()) != 2 {
		t.Errorf("Rules() = %d", len(f.Rules()))
	}
	if !f.Evaluate(ctx, NewCandidate(&model.Employee{}, shift)).Eligible {
		t.Error("替换后应通过")
	}
}

func TestContext_OnLeave(t *testing.T) {
	emp := uuid.New()
	ctx := NewContext(nil, nil, []*model.LeaveRequest{
		{EmployeeID: emp, StartDate: "2024-03-01", EndDate: "2024-03-02", Status: model.LeaveApproved},
		{EmployeeID: emp, StartDate: "2024-03-05", EndDate: "2024-03-05", Status: model.LeavePending},
	})
	if !ctx.OnLeave(emp, "2024-03-02") {
		t.Error("已批准请假应生效")
	}
	if ctx.OnLeave(emp, "2024-03-05") {
		t.Error("待审批请假不应生效")
	}
}
