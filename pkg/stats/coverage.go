package stats

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/operating"
)

// DayStatus 单日覆盖状态
type DayStatus string

const (
	DayCritical    DayStatus = "critical"
	DayInefficient DayStatus = "inefficient"
	DayGood        DayStatus = "good"
	DayClosed      DayStatus = "closed"
)

// Options 覆盖率分析选项
type Options struct {
	// CountStaffOnLeave 为 true 时请假员工的排班仍计入在岗人数
	CountStaffOnLeave bool `json:"count_staff_on_leave"`
	// InefficientOverstaffing 单日冗余人次超过该值视为低效，默认 3
	InefficientOverstaffing int                             `json:"inefficient_overstaffing,omitempty"`
	Overrides               map[string]*operating.Overrides `json:"overrides,omitempty"`
}

// HourCoverage 单个钟点的覆盖情况
type HourCoverage struct {
	Hour         int            `json:"hour"` // 0-23
	Actual       int            `json:"actual"`
	Required     int            `json:"required"`
	Preferred    int            `json:"preferred"`
	Priority     model.Priority `json:"priority"`
	Shortfall    int            `json:"shortfall"`
	Overstaffing int            `json:"overstaffing"`
	CoverageRate float64        `json:"coverage_rate"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date              string         `json:"date"`
	IsOpen            bool           `json:"is_open"`
	Reason            string         `json:"reason,omitempty"`
	Hours             []HourCoverage `json:"hours"`
	AverageCoverage   float64        `json:"average_coverage"`
	TotalShortfall    int            `json:"total_shortfall"`
	TotalOverstaffing int            `json:"total_overstaffing"`
	StaffHours        int            `json:"staff_hours"`
	Efficiency        float64        `json:"efficiency"`
	Status            DayStatus      `json:"status"`
}

// WeekSummary ISO 周汇总
type WeekSummary struct {
	Week              string  `json:"week"`
	OpenDays          int     `json:"open_days"`
	CriticalDays      int     `json:"critical_days"`
	AverageCoverage   float64 `json:"average_coverage"`
	TotalShortfall    int     `json:"total_shortfall"`
	TotalOverstaffing int     `json:"total_overstaffing"`
}

// OverallStats 整体统计
type OverallStats struct {
	OpenDays          int     `json:"open_days"`
	ClosedDays        int     `json:"closed_days"`
	CriticalDays      int     `json:"critical_days"`
	InefficientDays   int     `json:"inefficient_days"`
	GoodDays          int     `json:"good_days"`
	UnderstaffedHours int     `json:"understaffed_hours"`
	AverageCoverage   float64 `json:"average_coverage"`
	TotalShortfall    int     `json:"total_shortfall"`
	TotalOverstaffing int     `json:"total_overstaffing"`
	Efficiency        float64 `json:"efficiency"`
}

// CoverageReport 覆盖率分析报告
type CoverageReport struct {
	DateRange       model.DateRange  `json:"date_range"`
	Days            []DayCoverage    `json:"daily_analysis"`
	Weeks           []WeekSummary    `json:"weekly_summary"`
	Overall         OverallStats     `json:"overall_stats"`
	Conflicts       []model.Conflict `json:"conflicts"`
	Recommendations []string         `json:"recommendations"`
}

// CoverageAnalyzer 覆盖率分析器，只读
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 按小时比较实际在岗人数与模板要求
func (c *CoverageAnalyzer) Analyze(tpl *model.OperatingHoursTemplate, entries []*model.ScheduleEntry, leaves []*model.LeaveRequest, r model.DateRange, opts Options) (*CoverageReport, error) {
	if tpl == nil {
		return nil, errors.New(errors.CodeInvalidTemplate, "缺少营业时间模板")
	}
	if err := r.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidDateRange, "日期范围无效")
	}
	if opts.InefficientOverstaffing <= 0 {
		opts.InefficientOverstaffing = 3
	}

	days, err := operating.ResolveRange(tpl, r, opts.Overrides)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidTemplate, "解析营业时间失败")
	}

	byDate := c.activeEntries(entries, leaves, opts.CountStaffOnLeave)

	report := &CoverageReport{
		DateRange: r,
		Days:      make([]DayCoverage, 0, len(days)),
		Conflicts: make([]model.Conflict, 0),
	}
	for _, eh := range days {
		day := c.analyzeDay(eh, byDate, opts)
		report.Days = append(report.Days, day)
		report.Conflicts = append(report.Conflicts, understaffedRuns(day)...)
	}

	report.Weeks = weekly(report.Days)
	report.Overall = overall(report.Days)
	report.Recommendations = coverageRecommendations(report)
	return report, nil
}

// activeEntries 按日期索引有效排班，默认剔除请假当日的排班
func (c *CoverageAnalyzer) activeEntries(entries []*model.ScheduleEntry, leaves []*model.LeaveRequest, countOnLeave bool) map[string][]*model.ScheduleEntry {
	approved := make(map[uuid.UUID][]*model.LeaveRequest)
	if !countOnLeave {
		for _, l := range leaves {
			if l.Status == model.LeaveApproved {
				approved[l.EmployeeID] = append(approved[l.EmployeeID], l)
			}
		}
	}

	byDate := make(map[string][]*model.ScheduleEntry)
	for _, e := range entries {
		if !e.IsActive() || onLeave(approved[e.EmployeeID], e.Date) {
			continue
		}
		byDate[e.Date] = append(byDate[e.Date], e)
	}
	return byDate
}

func onLeave(leaves []*model.LeaveRequest, date string) bool {
	for _, l := range leaves {
		if l.Covers(date) {
			return true
		}
	}
	return false
}

func (c *CoverageAnalyzer) analyzeDay(eh *operating.EffectiveHours, byDate map[string][]*model.ScheduleEntry, opts Options) DayCoverage {
	day := DayCoverage{Date: eh.Date, IsOpen: eh.IsOpen, Reason: eh.Reason, Hours: []HourCoverage{}}
	if !eh.IsOpen {
		day.Status = DayClosed
		day.Efficiency = 1
		return day
	}

	today := byDate[eh.Date]
	yesterday := byDate[model.AddDays(eh.Date, -1)]
	tomorrow := byDate[model.AddDays(eh.Date, 1)]

	iv := eh.Interval()
	first := iv.Start.Hour()
	last := iv.EndMinute() / 60 // 不含

	rateSum := 0.0
	for h := first; h < last; h++ {
		start := h * 60
		actual := countCovering(today, start) +
			countCovering(yesterday, start+model.MinutesPerDay) +
			countCovering(tomorrow, start-model.MinutesPerDay)

		required, preferred, priority := eh.Requirement(h % 24)
		hc := HourCoverage{
			Hour:         h % 24,
			Actual:       actual,
			Required:     required,
			Preferred:    preferred,
			Priority:     priority,
			Shortfall:    max(0, required-actual),
			Overstaffing: max(0, actual-preferred),
			CoverageRate: Ratio(float64(min(actual, required)), float64(required), 1),
		}
		day.Hours = append(day.Hours, hc)
		day.TotalShortfall += hc.Shortfall
		day.TotalOverstaffing += hc.Overstaffing
		day.StaffHours += actual
		rateSum += hc.CoverageRate
	}

	if n := len(day.Hours); n > 0 {
		day.AverageCoverage = Round(rateSum/float64(n), RatePlaces)
	} else {
		day.AverageCoverage = 1
	}
	day.Efficiency = Round(1-Ratio(float64(day.TotalOverstaffing), float64(day.StaffHours), 0), RatePlaces)

	switch {
	case day.TotalShortfall > 0:
		day.Status = DayCritical
	case day.TotalOverstaffing > opts.InefficientOverstaffing:
		day.Status = DayInefficient
	default:
		day.Status = DayGood
	}
	return day
}

// countCovering 统计与 [minute, minute+60) 有交集的排班数，minute 以该排班日期零点为基准
func countCovering(entries []*model.ScheduleEntry, minute int) int {
	if minute+60 <= 0 {
		return 0
	}
	n := 0
	for _, e := range entries {
		iv := e.Interval()
		if int(iv.Start) < minute+60 && minute < iv.EndMinute() {
			n++
		}
	}
	return n
}

// understaffedRuns 连续缺人的钟点合并为一条软冲突
func understaffedRuns(day DayCoverage) []model.Conflict {
	var out []model.Conflict
	for i := 0; i < len(day.Hours); {
		if day.Hours[i].Shortfall == 0 {
			i++
			continue
		}
		j, short := i, 0
		for j < len(day.Hours) && day.Hours[j].Shortfall > 0 {
			short += day.Hours[j].Shortfall
			j++
		}
		iv := model.NewInterval(model.Clock(day.Hours[i].Hour, 0), model.Clock((day.Hours[j-1].Hour+1)%24, 0))
		out = append(out, model.Conflict{
			Type:     model.ConflictUnderstaffedHour,
			Severity: model.SeverityMedium,
			Date:     day.Date,
			Shift:    &iv,
			Actual:   float64(short),
			Message:  fmt.Sprintf("%s %s 共缺 %d 人次", day.Date, iv, short),
		})
		i = j
	}
	return out
}

func weekly(days []DayCoverage) []WeekSummary {
	weeks := make([]WeekSummary, 0)
	index := make(map[string]int)
	rates := make(map[string]float64)
	for _, d := range days {
		if !d.IsOpen {
			continue
		}
		key := model.ISOWeekKey(d.Date)
		i, ok := index[key]
		if !ok {
			i = len(weeks)
			index[key] = i
			weeks = append(weeks, WeekSummary{Week: key})
		}
		w := &weeks[i]
		w.OpenDays++
		w.TotalShortfall += d.TotalShortfall
		w.TotalOverstaffing += d.TotalOverstaffing
		if d.Status == DayCritical {
			w.CriticalDays++
		}
		rates[key] += d.AverageCoverage
	}
	for i := range weeks {
		weeks[i].AverageCoverage = Round(rates[weeks[i].Week]/float64(weeks[i].OpenDays), RatePlaces)
	}
	return weeks
}

func overall(days []DayCoverage) OverallStats {
	var o OverallStats
	rateSum := 0.0
	staffHours := 0
	for _, d := range days {
		if !d.IsOpen {
			o.ClosedDays++
			continue
		}
		o.OpenDays++
		switch d.Status {
		case DayCritical:
			o.CriticalDays++
		case DayInefficient:
			o.InefficientDays++
		default:
			o.GoodDays++
		}
		for _, h := range d.Hours {
			if h.Shortfall > 0 {
				o.UnderstaffedHours++
			}
		}
		o.TotalShortfall += d.TotalShortfall
		o.TotalOverstaffing += d.TotalOverstaffing
		staffHours += d.StaffHours
		rateSum += d.AverageCoverage
	}
	o.AverageCoverage = Ratio(rateSum, float64(o.OpenDays), 1)
	o.Efficiency = Round(1-Ratio(float64(o.TotalOverstaffing), float64(staffHours), 0), RatePlaces)
	return o
}

func coverageRecommendations(r *CoverageReport) []string {
	recs := make([]string, 0)
	o := r.Overall

	if o.OpenDays == 0 {
		return append(recs, "所选日期均不营业，无需分析覆盖率")
	}

	if o.CriticalDays > 0 {
		worst := r.Days[0]
		for _, d := range r.Days[1:] {
			if d.TotalShortfall > worst.TotalShortfall {
				worst = d
			}
		}
		recs = append(recs, fmt.Sprintf("%d 天存在人手缺口，最严重的是 %s（缺 %d 人次），建议增加排班", o.CriticalDays, worst.Date, worst.TotalShortfall))

		if h, short := peakShortHour(r.Days); short > 0 {
			recs = append(recs, fmt.Sprintf("%02d:00 时段累计缺 %d 人次，是缺口最集中的时段", h, short))
		}
	}
	if o.InefficientDays > 0 {
		recs = append(recs, fmt.Sprintf("%d 天人员冗余较多，共多出 %d 人次，可适当减少排班", o.InefficientDays, o.TotalOverstaffing))
	}
	if o.Efficiency < 0.8 && o.TotalOverstaffing > 0 {
		recs = append(recs, fmt.Sprintf("整体人力效率 %.0f%%，建议按小时需求调整班次长度", o.Efficiency*100))
	}
	if len(recs) == 0 {
		recs = append(recs, "排班覆盖良好，无需调整")
	}
	return recs
}

func peakShortHour(days []DayCoverage) (int, int) {
	byHour := make(map[int]int)
	for _, d := range days {
		for _, h := range d.Hours {
			byHour[h.Hour] += h.Shortfall
		}
	}
	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	best, bestShort := 0, 0
	for _, h := range hours {
		if byHour[h] > bestShort {
			best, bestShort = h, byHour[h]
		}
	}
	return best, bestShort
}
