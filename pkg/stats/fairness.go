// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工时公平性
	WorkloadGini        float64 `json:"workload_gini"` // 0=完全公平, 1=完全不公平
	WorkloadStdDev      float64 `json:"workload_std_dev"`
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"`
	MaxHours            float64 `json:"max_hours"`
	MinHours            float64 `json:"min_hours"`

	// 班次类型公平性
	ShiftTypeDistribution map[string]float64 `json:"shift_type_distribution"` // 百分比
	NightShiftGini        float64            `json:"night_shift_gini"`
	WeekendShiftGini      float64            `json:"weekend_shift_gini"`

	EmployeeStats []EmployeeStat `json:"employee_stats"`

	OverallFairnessScore float64 `json:"overall_fairness_score"` // 0-100
}

// EmployeeStat 员工统计
type EmployeeStat struct {
	EmployeeID    uuid.UUID `json:"employee_id"`
	EmployeeName  string    `json:"employee_name"`
	TotalHours    float64   `json:"total_hours"`
	ShiftCount    int       `json:"shift_count"`
	NightShifts   int       `json:"night_shifts"`
	WeekendShifts int       `json:"weekend_shifts"`
	Deviation     float64   `json:"deviation"` // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析排班公平性，没有排班的员工按 0 工时参与计算
func (f *FairnessAnalyzer) Analyze(entries []*model.ScheduleEntry, employees []*model.Employee) *FairnessMetrics {
	stats := f.employeeStats(entries, employees)
	if len(stats) == 0 {
		return &FairnessMetrics{
			ShiftTypeDistribution: make(map[string]float64),
			EmployeeStats:         []EmployeeStat{},
			OverallFairnessScore:  100,
		}
	}

	hours := make([]float64, len(stats))
	nights := make([]float64, len(stats))
	weekends := make([]float64, len(stats))
	for i, s := range stats {
		hours[i] = s.TotalHours
		nights[i] = float64(s.NightShifts)
		weekends[i] = float64(s.WeekendShifts)
	}

	avg := mean(hours)
	stdDev := math.Sqrt(variance(hours, avg))
	maxH, minH := valueRange(hours)
	for i := range stats {
		if avg > 0 {
			stats[i].Deviation = (stats[i].TotalHours - avg) / avg * 100
		}
	}

	workloadGini := Gini(hours)
	nightGini := Gini(nights)
	weekendGini := Gini(weekends)

	return &FairnessMetrics{
		WorkloadGini:          workloadGini,
		WorkloadStdDev:        stdDev,
		AvgHoursPerEmployee:   avg,
		MaxHours:              maxH,
		MinHours:              minH,
		ShiftTypeDistribution: shiftTypeDistribution(entries),
		NightShiftGini:        nightGini,
		WeekendShiftGini:      weekendGini,
		EmployeeStats:         stats,
		OverallFairnessScore:  overallScore(workloadGini, nightGini, weekendGini, stdDev, avg),
	}
}

func (f *FairnessAnalyzer) employeeStats(entries []*model.ScheduleEntry, employees []*model.Employee) []EmployeeStat {
	byID := make(map[uuid.UUID]*EmployeeStat, len(employees))
	order := make([]uuid.UUID, 0, len(employees))
	for _, e := range employees {
		if _, ok := byID[e.ID]; ok {
			continue
		}
		byID[e.ID] = &EmployeeStat{EmployeeID: e.ID, EmployeeName: e.Name}
		order = append(order, e.ID)
	}

	for _, en := range entries {
		if !en.IsActive() {
			continue
		}
		s, ok := byID[en.EmployeeID]
		if !ok {
			s = &EmployeeStat{EmployeeID: en.EmployeeID, EmployeeName: en.EmployeeID.String()}
			byID[en.EmployeeID] = s
			order = append(order, en.EmployeeID)
		}
		s.TotalHours += en.WorkingHours()
		s.ShiftCount++
		if en.Interval().IsNight() {
			s.NightShifts++
		}
		if w, err := model.WeekdayOf(en.Date); err == nil && model.IsWeekend(w) {
			s.WeekendShifts++
		}
	}

	out := make([]EmployeeStat, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalHours > out[j].TotalHours
	})
	return out
}

// Gini 计算基尼系数，空或全 0 时为 0
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g /= float64(n) * sum
	return math.Max(0, math.Min(1, g))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sq := 0.0
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return sq / float64(len(values))
}

func valueRange(values []float64) (hi, lo float64) {
	if len(values) == 0 {
		return 0, 0
	}
	hi, lo = values[0], values[0]
	for _, v := range values[1:] {
		hi = math.Max(hi, v)
		lo = math.Min(lo, v)
	}
	return hi, lo
}

func shiftTypeDistribution(entries []*model.ScheduleEntry) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, e := range entries {
		if !e.IsActive() {
			continue
		}
		t := e.ShiftType
		if t == "" {
			t = model.ClassifyShiftType(e.Interval())
		}
		counts[t]++
		total++
	}
	dist := make(map[string]float64, len(counts))
	for t, c := range counts {
		dist[t] = float64(c) / float64(total) * 100
	}
	return dist
}

// overallScore 综合公平性评分
func overallScore(workloadGini, nightGini, weekendGini, stdDev, avg float64) float64 {
	const (
		workloadWeight = 0.4
		nightWeight    = 0.25
		weekendWeight  = 0.25
		stdDevWeight   = 0.1
	)

	cvScore := 100.0
	if avg > 0 {
		cvScore = math.Max(0, 100-stdDev/avg*200)
	}

	score := workloadWeight*(1-workloadGini)*100 +
		nightWeight*(1-nightGini)*100 +
		weekendWeight*(1-weekendGini)*100 +
		stdDevWeight*cvScore
	return math.Max(0, math.Min(100, score))
}
