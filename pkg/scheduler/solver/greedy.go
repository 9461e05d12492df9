// Package solver 提供排班求解器
package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/logger"
	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/operating"
	"github.com/paiban/staffplan/pkg/scheduler/constraint"
	"github.com/paiban/staffplan/pkg/scheduler/scoring"
	"github.com/paiban/staffplan/pkg/shiftgen"
)

// Mode 生成模式
type Mode string

const (
	ModeReplace  Mode = "replace"
	ModeAppend   Mode = "append"
	ModeFillGaps Mode = "fill_gaps"
)

// ParseMode 解析生成模式，空值视为 replace
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeReplace, nil
	case ModeReplace, ModeAppend, ModeFillGaps:
		return Mode(s), nil
	}
	return "", fmt.Errorf("未知的生成模式: %s", s)
}

// EntrySink 生成的排班逐条写入的目标
type EntrySink interface {
	CreateEntry(ctx context.Context, entry *model.ScheduleEntry) error
}

// Problem 一次求解的输入
type Problem struct {
	BusinessID uuid.UUID
	Days       []*operating.EffectiveHours // 按日期升序
	Level      shiftgen.Level
	Mode       Mode
	Employees  []*model.Employee // 在职员工
	Existing   []*model.ScheduleEntry
	Chemistry  *model.ChemistryIndex
	Context    *constraint.Context
	Scorer     *scoring.Scorer
}

// Statistics 求解统计
type Statistics struct {
	OpenDays       int `json:"open_days"`
	TotalShifts    int `json:"total_shifts"`
	FilledShifts   int `json:"filled_shifts"`
	SkippedShifts  int `json:"skipped_shifts"`
	RequiredSlots  int `json:"required_slots"`
	AssignedSlots  int `json:"assigned_slots"`
	ForcedPairs    int `json:"forced_pairs"`
	FailedWrites   int `json:"failed_writes"`
	RejectedChecks int `json:"rejected_checks"`
}

// FillRate 人次满足率
func (s *Statistics) FillRate() float64 {
	if s.RequiredSlots == 0 {
		return 1
	}
	return float64(s.AssignedSlots) / float64(s.RequiredSlots)
}

// Result 求解结果
type Result struct {
	Entries    []*model.ScheduleEntry `json:"entries"`
	Conflicts  []model.Conflict       `json:"conflicts"`
	Statistics Statistics             `json:"statistics"`
	Duration   time.Duration          `json:"duration"`
}

// GreedySolver 贪心求解器，逐日逐班次选人
type GreedySolver struct {
	filter *constraint.Filter
	sink   EntrySink
	logger *logger.SchedulerLogger
}

// NewGreedySolver 创建贪心求解器，sink 可为 nil
func NewGreedySolver(filter *constraint.Filter, sink EntrySink, log *logger.SchedulerLogger) *GreedySolver {
	if log == nil {
		log = logger.NewSchedulerLogger()
	}
	return &GreedySolver{filter: filter, sink: sink, logger: log}
}

// Name 返回求解器名称
func (s *GreedySolver) Name() string {
	return "GreedySolver"
}

// Solve 按日期升序生成排班，每天的班次按优先级从高到低处理
func (s *GreedySolver) Solve(ctx context.Context, p *Problem) (*Result, error) {
	started := time.Now()
	result := &Result{
		Entries:   make([]*model.ScheduleEntry, 0),
		Conflicts: make([]model.Conflict, 0),
	}

	inRange := make(map[string]bool, len(p.Days))
	for _, eh := range p.Days {
		inRange[eh.Date] = true
	}
	// replace 模式只丢弃范围内的已有排班，范围外的仍参与休息、周工时和连续天数校验
	existingByDate := make(map[string][]*model.ScheduleEntry)
	for _, e := range p.Existing {
		if !e.IsActive() || (p.Mode == ModeReplace && inRange[e.Date]) {
			continue
		}
		p.Context.Stats.Seed(e)
		existingByDate[e.Date] = append(existingByDate[e.Date], e)
	}

	for _, eh := range p.Days {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !eh.IsOpen {
			s.logger.DayClosed(eh.Date, eh.Reason)
			continue
		}
		result.Statistics.OpenDays++

		shifts := shiftgen.Generate(eh, p.Level)
		sort.SliceStable(shifts, func(i, j int) bool {
			return shifts[i].Priority.Rank() > shifts[j].Priority.Rank()
		})

		created := 0
		for i := range shifts {
			created += s.solveShift(ctx, p, eh, &shifts[i], existingByDate[eh.Date], result)
		}
		s.logger.DayGenerated(eh.Date, len(shifts), created)
	}

	result.Duration = time.Since(started)
	return result, nil
}

func (s *GreedySolver) solveShift(ctx context.Context, p *Problem, eh *operating.EffectiveHours, shift *model.Shift, existing []*model.ScheduleEntry, result *Result) int {
	st := &result.Statistics
	st.TotalShifts++

	required := shift.RequiredStaff
	if p.Mode == ModeFillGaps {
		required -= coveredBy(existing, shift)
	}
	if required <= 0 {
		st.SkippedShifts++
		return 0
	}
	st.RequiredSlots += required

	eligible, rejected := s.filter.Eligible(p.Context, p.Employees, shift)
	st.RejectedChecks += len(rejected)

	ranked := p.Scorer.Rank(eligible, shift)
	sel := Select(ranked, required, p.Chemistry, shift)
	for _, c := range sel.Conflicts {
		if c.Type == model.ConflictChemistryForced {
			st.ForcedPairs++
			s.logger.ChemistryForced(shift.Date, shift.Interval().String(), c.EmployeeIDs[0].String(), c.EmployeeIDs[1].String())
		}
	}
	if sel.Shortfall > 0 {
		s.logger.ShiftUnderstaffed(shift.Date, shift.Interval().String(), required, len(sel.Selected))
	}
	result.Conflicts = append(result.Conflicts, sel.Conflicts...)

	created := 0
	for _, c := range sel.Selected {
		entry := newEntry(p.BusinessID, c.Employee, shift, eh)
		if s.sink != nil {
			if err := s.sink.CreateEntry(ctx, entry); err != nil {
				s.logger.EntryWriteFailed(entry.Date, entry.EmployeeID.String(), err)
				result.Conflicts = append(result.Conflicts, creationConflict(entry, err))
				st.FailedWrites++
				continue
			}
		}
		p.Context.Stats.Record(entry.EmployeeID, entry.Date, entry.Interval())
		result.Entries = append(result.Entries, entry)
		created++
	}

	st.AssignedSlots += created
	if created >= required {
		st.FilledShifts++
	}
	return created
}

// coveredBy 已有排班中与班次重叠的条数
func coveredBy(existing []*model.ScheduleEntry, shift *model.Shift) int {
	iv := shift.Interval()
	n := 0
	for _, e := range existing {
		if e.IsActive() && e.Interval().Overlaps(iv) {
			n++
		}
	}
	return n
}

func newEntry(businessID uuid.UUID, e *model.Employee, shift *model.Shift, eh *operating.EffectiveHours) *model.ScheduleEntry {
	iv := shift.Interval()
	breakMins := 0
	if br, ok := eh.BreakInterval(); ok {
		breakMins = iv.OverlapMinutes(br)
	}
	return &model.ScheduleEntry{
		BaseModel:       model.NewBaseModel(),
		BusinessID:      businessID,
		EmployeeID:      e.ID,
		Date:            shift.Date,
		StartTime:       shift.StartTime,
		EndTime:         shift.EndTime,
		ShiftType:       shift.ShiftType,
		Priority:        shift.Priority,
		BreakMinutes:    breakMins,
		Status:          model.EntryScheduled,
		IsAutoGenerated: true,
	}
}

func creationConflict(entry *model.ScheduleEntry, err error) model.Conflict {
	iv := entry.Interval()
	return model.Conflict{
		Type:        model.ConflictCreationError,
		Severity:    model.SeverityHigh,
		EmployeeIDs: []uuid.UUID{entry.EmployeeID},
		Date:        entry.Date,
		Shift:       &iv,
		Message:     fmt.Sprintf("写入排班失败: %v", err),
	}
}
