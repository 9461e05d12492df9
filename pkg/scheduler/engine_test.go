package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/model"
)

// 周一至周五 09:00-18:00 至少 2 人，周六休息，周日未配置
func weekdayTemplate(minStaff int) *model.OperatingHoursTemplate {
	tpl := model.NewTemplate(uuid.New(), "门店")
	for w := time.Monday; w <= time.Friday; w++ {
		tpl.SetDay(&model.DailyHours{
			Weekday:   w,
			IsOpen:    true,
			OpenTime:  model.MustClock("09:00"),
			CloseTime: model.MustClock("18:00"),
			MinStaff:  minStaff,
		})
	}
	tpl.SetDay(&model.DailyHours{Weekday: time.Saturday})
	return tpl
}

func team(n int) []*model.Employee {
	out := make([]*model.Employee, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &model.Employee{
			BaseModel: model.NewBaseModel(),
			Name:      fmt.Sprintf("员工%d", i+1),
			Status:    "active",
			Ability:   &model.Ability{WorkSkill: 3, Experience: 3, CustomerService: 3, Flexibility: 3, TeamChemistry: 3},
		})
	}
	return out
}

func week() model.DateRange {
	return model.DateRange{StartDate: "2024-03-04", EndDate: "2024-03-10"}
}

type recordingSink struct {
	fail    map[uuid.UUID]bool
	entries []*model.ScheduleEntry
}

func (s *recordingSink) CreateEntry(_ context.Context, e *model.ScheduleEntry) error {
	if s.fail[e.EmployeeID] {
		return fmt.Errorf("唯一约束冲突")
	}
	s.entries = append(s.entries, e)
	return nil
}

func TestGenerateSchedule_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
		code   errors.Code
	}{
		{"缺少员工", func(r *Request) { r.Employees = nil }, errors.CodeEmptyEmployees},
		{"全部离职", func(r *Request) {
			for _, e := range r.Employees {
				e.Status = "inactive"
			}
		}, errors.CodeEmptyEmployees},
		{"缺少模板", func(r *Request) { r.Template = nil }, errors.CodeInvalidTemplate},
		{"日期倒置", func(r *Request) { r.DateRange = model.DateRange{StartDate: "2024-03-10", EndDate: "2024-03-04"} }, errors.CodeInvalidDateRange},
		{"日期格式错误", func(r *Request) { r.DateRange.StartDate = "2024/03/04" }, errors.CodeInvalidDateRange},
		{"超过 366 天", func(r *Request) { r.DateRange = model.DateRange{StartDate: "2024-01-01", EndDate: "2025-01-01"} }, errors.CodeInvalidDateRange},
		{"未知优化级别", func(r *Request) { r.OptimizationLevel = "extreme" }, errors.CodeInvalidInput},
		{"未知生成模式", func(r *Request) { r.Mode = "merge" }, errors.CodeInvalidInput},
		{"能力评分越界", func(r *Request) { r.Employees[0].Ability.WorkSkill = 9 }, errors.CodeInvalidInput},
		{"多类错误", func(r *Request) {
			r.Template = nil
			r.Employees = nil
		}, errors.CodeValidationFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{
				BusinessID: uuid.New(),
				Template:   weekdayTemplate(2),
				Employees:  team(3),
				DateRange:  week(),
			}
			tt.mutate(req)

			res, err := NewEngine().GenerateSchedule(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, res, "输入错误时不应返回部分结果")
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestGenerateSchedule_Week(t *testing.T) {
	emps := team(6)
	res, err := NewEngine().GenerateSchedule(context.Background(), &Request{
		BusinessID: uuid.New(),
		Template:   weekdayTemplate(2),
		Employees:  emps,
		DateRange:  week(),
	})
	require.NoError(t, err)

	// 每个营业日两个班次各 2 人
	assert.Len(t, res.Entries, 20)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 5, res.Compliance.OpenDays)
	assert.Equal(t, 2, res.Compliance.ClosedDays)
	assert.Equal(t, 1.0, res.Compliance.FillRate)
	assert.Equal(t, 10, res.Compliance.FilledShifts)

	perDay := make(map[string]map[uuid.UUID]int)
	for _, e := range res.Entries {
		if perDay[e.Date] == nil {
			perDay[e.Date] = make(map[uuid.UUID]int)
		}
		perDay[e.Date][e.EmployeeID]++
		assert.NotEqual(t, "2024-03-09", e.Date, "周六休息")
		assert.NotEqual(t, "2024-03-10", e.Date, "周日未配置视为休息")
	}
	for date, counts := range perDay {
		for id, n := range counts {
			assert.Equal(t, 1, n, "%s 员工 %s 被安排 %d 次", date, id, n)
		}
	}

	require.Len(t, res.EmployeeSummary, 6)
	for _, s := range res.EmployeeSummary {
		assert.Positive(t, s.Shifts, "公平性应让每位员工都有排班: %s", s.Name)
		assert.Less(t, s.TotalHours, 40.0)
	}
	assert.Less(t, res.Compliance.WorkloadGini, 0.3)
}

func TestGenerateSchedule_ForcedChemistry(t *testing.T) {
	emps := team(3)
	var edges []model.ChemistryEdge
	for i := range emps {
		for j := i + 1; j < len(emps); j++ {
			edges = append(edges, model.NewChemistryEdge(emps[i].ID, emps[j].ID, 1))
		}
	}

	res, err := NewEngine().GenerateSchedule(context.Background(), &Request{
		BusinessID:        uuid.New(),
		Template:          weekdayTemplate(3),
		Employees:         emps,
		Chemistry:         edges,
		DateRange:         model.DateRange{StartDate: "2024-03-04", EndDate: "2024-03-04"},
		OptimizationLevel: "basic",
	})
	require.NoError(t, err)

	assert.Len(t, res.Entries, 3, "人手不足时冲突员工也必须全部安排")
	assert.Equal(t, 3, res.Compliance.ConflictsByType[model.ConflictChemistryForced])
	assert.Zero(t, res.Compliance.ConflictsByType[model.ConflictInsufficientStaff])
	assert.NotEmpty(t, res.Recommendations)
}

func TestGenerateSchedule_LeaveAndShortage(t *testing.T) {
	emps := team(2)
	res, err := NewEngine().GenerateSchedule(context.Background(), &Request{
		BusinessID: uuid.New(),
		Template:   weekdayTemplate(2),
		Employees:  emps,
		Leaves: []*model.LeaveRequest{{
			ID: uuid.New(), EmployeeID: emps[0].ID, StartDate: "2024-03-04", EndDate: "2024-03-04", Status: model.LeaveApproved,
		}},
		DateRange:         model.DateRange{StartDate: "2024-03-04", EndDate: "2024-03-04"},
		OptimizationLevel: "basic",
	})
	require.NoError(t, err)

	require.Len(t, res.Entries, 1)
	assert.Equal(t, emps[1].ID, res.Entries[0].EmployeeID)
	assert.Equal(t, 1, res.Compliance.ConflictsByType[model.ConflictInsufficientStaff])
	assert.Equal(t, 0.5, res.Compliance.FillRate)
	assert.Contains(t, res.Recommendations[0], "人手不足")
}

func TestGenerateSchedule_SinkFailure(t *testing.T) {
	emps := team(3)
	sink := &recordingSink{fail: map[uuid.UUID]bool{emps[0].ID: true}}

	res, err := NewEngine(WithSink(sink)).GenerateSchedule(context.Background(), &Request{
		BusinessID:        uuid.New(),
		Template:          weekdayTemplate(2),
		Employees:         emps,
		DateRange:         model.DateRange{StartDate: "2024-03-04", EndDate: "2024-03-04"},
		OptimizationLevel: "basic",
	})
	require.NoError(t, err, "写入失败不应中断生成")

	assert.Len(t, res.Entries, 1)
	assert.Len(t, sink.entries, 1)
	assert.Equal(t, 1, res.Compliance.ConflictsByType[model.ConflictCreationError])
	assert.Equal(t, 1, res.Statistics.FailedWrites)
}

func TestGenerateSchedule_FillGapsWithExisting(t *testing.T) {
	emps := team(3)
	existing := &model.ScheduleEntry{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: emps[2].ID,
		Date:       "2024-03-04",
		StartTime:  model.MustClock("09:00"),
		EndTime:    model.MustClock("18:00"),
		Status:     model.EntryScheduled,
	}

	res, err := NewEngine().GenerateSchedule(context.Background(), &Request{
		BusinessID:        uuid.New(),
		Template:          weekdayTemplate(2),
		Employees:         emps,
		Existing:          []*model.ScheduleEntry{existing},
		DateRange:         model.DateRange{StartDate: "2024-03-04", EndDate: "2024-03-04"},
		OptimizationLevel: "basic",
		Mode:              "fill_gaps",
	})
	require.NoError(t, err)

	require.Len(t, res.Entries, 1)
	assert.NotEqual(t, emps[2].ID, res.Entries[0].EmployeeID)
	assert.Equal(t, 1, res.Compliance.RequiredSlots)
}

func TestGenerateSchedule_HistoryBeforeRange(t *testing.T) {
	emp := team(1)
	shift := func(date, start, end string) *model.ScheduleEntry {
		return &model.ScheduleEntry{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: emp[0].ID,
			Date:       date,
			StartTime:  model.MustClock(start),
			EndTime:    model.MustClock(end),
			Status:     model.EntryScheduled,
		}
	}

	tests := []struct {
		name     string
		existing []*model.ScheduleEntry
		date     string
	}{
		{"前一晚夜班不足最小休息", []*model.ScheduleEntry{shift("2024-03-03", "22:00", "06:00")}, "2024-03-04"},
		{"本周已排工时达到上限", []*model.ScheduleEntry{
			shift("2024-03-04", "08:00", "18:00"),
			shift("2024-03-05", "08:00", "18:00"),
			shift("2024-03-06", "08:00", "18:00"),
			shift("2024-03-07", "08:00", "18:00"),
		}, "2024-03-08"},
		{"连续工作天数延续到范围内", []*model.ScheduleEntry{
			shift("2024-02-27", "09:00", "13:00"),
			shift("2024-02-28", "09:00", "13:00"),
			shift("2024-02-29", "09:00", "13:00"),
			shift("2024-03-01", "09:00", "13:00"),
			shift("2024-03-02", "09:00", "13:00"),
			shift("2024-03-03", "09:00", "13:00"),
		}, "2024-03-04"},
	}
	for _, tt := range tests {
		for _, mode := range []string{"replace", "append"} {
			t.Run(tt.name+"/"+mode, func(t *testing.T) {
				res, err := NewEngine().GenerateSchedule(context.Background(), &Request{
					BusinessID:        uuid.New(),
					Template:          weekdayTemplate(1),
					Employees:         emp,
					Existing:          tt.existing,
					DateRange:         model.DateRange{StartDate: tt.date, EndDate: tt.date},
					OptimizationLevel: "basic",
					Mode:              mode,
				})
				require.NoError(t, err)
				assert.Empty(t, res.Entries)
				assert.Positive(t, res.Compliance.ConflictsByType[model.ConflictInsufficientStaff])
			})
		}
	}
}
