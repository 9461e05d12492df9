package constraint

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

// MonthlyHoursTarget 计算利用率时使用的月工时目标
const MonthlyHoursTarget = 160.0

type span struct {
	start, end time.Time
}

// EmployeeStats 单个员工在本次生成中的累计数据
// ScheduledDays 与 RunHours 只统计本次生成的排班，其余字段包含已有排班
type EmployeeStats struct {
	ScheduledDays int                `json:"scheduled_days"`
	RunHours      float64            `json:"run_hours"`
	HoursByWeek   map[string]float64 `json:"hours_by_week"`
	LastDate      string             `json:"last_date,omitempty"`

	worked map[string]bool
	spans  []span
}

func newEmployeeStats() *EmployeeStats {
	return &EmployeeStats{
		HoursByWeek: make(map[string]float64),
		worked:      make(map[string]bool),
	}
}

// Utilization 本次生成工时占月目标的比例
func (s *EmployeeStats) Utilization() float64 {
	return s.RunHours / MonthlyHoursTarget
}

// RunStatistics 单次生成的运行统计，按员工 ID 索引，调用结束即丢弃
type RunStatistics struct {
	byEmployee map[uuid.UUID]*EmployeeStats
}

// NewRunStatistics 创建空统计
func NewRunStatistics() *RunStatistics {
	return &RunStatistics{byEmployee: make(map[uuid.UUID]*EmployeeStats)}
}

// Get 获取员工统计，不存在时创建
func (r *RunStatistics) Get(id uuid.UUID) *EmployeeStats {
	s, ok := r.byEmployee[id]
	if !ok {
		s = newEmployeeStats()
		r.byEmployee[id] = s
	}
	return s
}

// Lookup 获取员工统计，不存在时返回 nil
func (r *RunStatistics) Lookup(id uuid.UUID) *EmployeeStats {
	if r == nil {
		return nil
	}
	return r.byEmployee[id]
}

// Seed 记录已有的有效排班，不计入本次生成的天数和工时
func (r *RunStatistics) Seed(e *model.ScheduleEntry) {
	if e == nil || !e.IsActive() {
		return
	}
	r.add(e.EmployeeID, e.Date, e.Interval(), false)
}

// Record 记录本次生成的排班
func (r *RunStatistics) Record(empID uuid.UUID, date string, iv model.ShiftInterval) {
	r.add(empID, date, iv, true)
}

func (r *RunStatistics) add(empID uuid.UUID, date string, iv model.ShiftInterval, fromRun bool) {
	d, err := model.ParseDate(date)
	if err != nil {
		return
	}
	s := r.Get(empID)
	hours := iv.DurationHours()
	s.HoursByWeek[model.ISOWeekKey(date)] += hours
	s.worked[date] = true
	start, end := iv.On(d)
	s.spans = append(s.spans, span{start: start, end: end})
	if date > s.LastDate {
		s.LastDate = date
	}
	if fromRun {
		s.ScheduledDays++
		s.RunHours += hours
	}
}

// HasEntryOn 员工在该日期是否已有排班
func (r *RunStatistics) HasEntryOn(empID uuid.UUID, date string) bool {
	s := r.Lookup(empID)
	return s != nil && s.worked[date]
}

// WeekHours 员工在日期所在 ISO 周的工时
func (r *RunStatistics) WeekHours(empID uuid.UUID, date string) float64 {
	s := r.Lookup(empID)
	if s == nil {
		return 0
	}
	return s.HoursByWeek[model.ISOWeekKey(date)]
}

// ConsecutiveAround 若在该日期上班，形成的连续工作天数（含当天）
func (r *RunStatistics) ConsecutiveAround(empID uuid.UUID, date string) int {
	return r.ConsecutiveBefore(empID, date) + 1 + r.consecutiveAfter(empID, date)
}

// ConsecutiveBefore 截至前一天的连续工作天数
func (r *RunStatistics) ConsecutiveBefore(empID uuid.UUID, date string) int {
	return r.countRun(empID, date, -1)
}

func (r *RunStatistics) consecutiveAfter(empID uuid.UUID, date string) int {
	return r.countRun(empID, date, 1)
}

func (r *RunStatistics) countRun(empID uuid.UUID, date string, step int) int {
	s := r.Lookup(empID)
	if s == nil {
		return 0
	}
	n := 0
	for d := model.AddDays(date, step); s.worked[d]; d = model.AddDays(d, step) {
		n++
	}
	return n
}

// MinRestHours 新班次与员工已知班次之间的最短间隔（小时），重叠视为 0
// 没有任何已知班次时返回 +Inf
func (r *RunStatistics) MinRestHours(empID uuid.UUID, start, end time.Time) float64 {
	s := r.Lookup(empID)
	best := math.Inf(1)
	if s == nil {
		return best
	}
	for _, sp := range s.spans {
		var gap time.Duration
		switch {
		case !sp.end.After(start):
			gap = start.Sub(sp.end)
		case !end.After(sp.start):
			gap = sp.start.Sub(end)
		default:
			gap = 0
		}
		if h := gap.Hours(); h < best {
			best = h
		}
	}
	return best
}

// AverageScheduledDays 指定员工在本次生成中的平均排班天数
func (r *RunStatistics) AverageScheduledDays(ids []uuid.UUID) float64 {
	if len(ids) == 0 {
		return 0
	}
	total := 0
	for _, id := range ids {
		if s := r.Lookup(id); s != nil {
			total += s.ScheduledDays
		}
	}
	return float64(total) / float64(len(ids))
}
