// Package validator 提供排班验证功能
package validator

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

// DetectorConfig 检测器配置
type DetectorConfig struct {
	MinRestHours       float64 `json:"min_rest_hours"`
	MaxHoursPerWeek    float64 `json:"max_hours_per_week"`
	MaxConsecutiveDays int     `json:"max_consecutive_days"`
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		MinRestHours:       11,
		MaxHoursPerWeek:    40,
		MaxConsecutiveDays: 6,
	}
}

// ConflictDetector 冲突检测器，只读，不修改排班
type ConflictDetector struct {
	config *DetectorConfig
	names  map[uuid.UUID]string
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// WithEmployees 返回一个在提示信息中使用员工姓名的检测器
func (d *ConflictDetector) WithEmployees(employees []*model.Employee) *ConflictDetector {
	names := make(map[uuid.UUID]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}
	return &ConflictDetector{config: d.config, names: names}
}

func (d *ConflictDetector) name(id uuid.UUID) string {
	if n, ok := d.names[id]; ok && n != "" {
		return n
	}
	return id.String()
}

// DetectAll 检测所有冲突，结果按员工 ID 排序
func (d *ConflictDetector) DetectAll(entries []*model.ScheduleEntry) []model.Conflict {
	conflicts := make([]model.Conflict, 0)

	byEmployee := groupByEmployee(entries)
	ids := make([]uuid.UUID, 0, len(byEmployee))
	for id := range byEmployee {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	for _, id := range ids {
		list := byEmployee[id]
		sortEntries(list)

		conflicts = append(conflicts, d.detectOverlaps(id, list)...)
		conflicts = append(conflicts, d.detectRestViolations(id, list)...)
		conflicts = append(conflicts, d.detectWeeklyHours(id, list)...)
		conflicts = append(conflicts, d.detectConsecutiveDays(id, list)...)
	}
	return conflicts
}

// DetectForEntry 检测新增或修改的单条排班与已有排班的冲突
func (d *ConflictDetector) DetectForEntry(entry *model.ScheduleEntry, existing []*model.ScheduleEntry) []model.Conflict {
	conflicts := make([]model.Conflict, 0)
	if entry == nil || !entry.IsActive() {
		return conflicts
	}

	var others []*model.ScheduleEntry
	for _, e := range existing {
		if e.EmployeeID == entry.EmployeeID && e.ID != entry.ID && e.IsActive() {
			others = append(others, e)
		}
	}
	sortEntries(others)

	for _, o := range others {
		if o.Date == entry.Date && o.Interval().Overlaps(entry.Interval()) {
			conflicts = append(conflicts, d.overlapConflict(entry.EmployeeID, entry, o))
			continue
		}
		prev, next := o, entry
		if entry.Date < o.Date || (entry.Date == o.Date && entry.StartTime < o.StartTime) {
			prev, next = entry, o
		}
		if rest, ok := restBetween(prev, next); ok && rest < d.config.MinRestHours {
			conflicts = append(conflicts, d.restConflict(entry.EmployeeID, prev, next, rest))
		}
	}

	all := append(append([]*model.ScheduleEntry{}, others...), entry)
	sortEntries(all)
	week := model.ISOWeekKey(entry.Date)
	for _, c := range d.detectWeeklyHours(entry.EmployeeID, all) {
		if c.Date != "" && model.ISOWeekKey(c.Date) == week {
			conflicts = append(conflicts, c)
		}
	}
	for _, c := range d.detectConsecutiveDays(entry.EmployeeID, all) {
		if containsID(c.EntryIDs, entry.ID) {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}

// detectOverlaps 同一天内任意两条区间相交的排班
func (d *ConflictDetector) detectOverlaps(empID uuid.UUID, entries []*model.ScheduleEntry) []model.Conflict {
	var conflicts []model.Conflict
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries) && entries[j].Date == entries[i].Date; j++ {
			if entries[i].Interval().Overlaps(entries[j].Interval()) {
				conflicts = append(conflicts, d.overlapConflict(empID, entries[i], entries[j]))
			}
		}
	}
	return conflicts
}

func (d *ConflictDetector) overlapConflict(empID uuid.UUID, a, b *model.ScheduleEntry) model.Conflict {
	iv := a.Interval()
	return model.Conflict{
		Type:        model.ConflictTimeOverlap,
		Severity:    model.SeverityHigh,
		EmployeeIDs: []uuid.UUID{empID},
		EntryIDs:    []uuid.UUID{a.ID, b.ID},
		Date:        a.Date,
		Shift:       &iv,
		Actual:      float64(a.Interval().OverlapMinutes(b.Interval())),
		Message: fmt.Sprintf("员工 %s 在 %s 的排班 %s 与 %s 时间重叠",
			d.name(empID), a.Date, a.Interval(), b.Interval()),
	}
}

// detectRestViolations 相邻两条排班之间的休息时间不足
func (d *ConflictDetector) detectRestViolations(empID uuid.UUID, entries []*model.ScheduleEntry) []model.Conflict {
	var conflicts []model.Conflict
	for i := 0; i+1 < len(entries); i++ {
		rest, ok := restBetween(entries[i], entries[i+1])
		if ok && rest < d.config.MinRestHours {
			conflicts = append(conflicts, d.restConflict(empID, entries[i], entries[i+1], rest))
		}
	}
	return conflicts
}

func (d *ConflictDetector) restConflict(empID uuid.UUID, prev, next *model.ScheduleEntry, rest float64) model.Conflict {
	iv := next.Interval()
	return model.Conflict{
		Type:        model.ConflictInsufficientRest,
		Severity:    model.SeverityMedium,
		EmployeeIDs: []uuid.UUID{empID},
		EntryIDs:    []uuid.UUID{prev.ID, next.ID},
		Date:        next.Date,
		Shift:       &iv,
		Actual:      rest,
		Limit:       d.config.MinRestHours,
		Message: fmt.Sprintf("员工 %s 在 %s %s 下班后仅休息 %.1f 小时，少于要求的 %.0f 小时",
			d.name(empID), prev.Date, prev.Interval(), rest, d.config.MinRestHours),
	}
}

// detectWeeklyHours ISO 周内工时超过上限
func (d *ConflictDetector) detectWeeklyHours(empID uuid.UUID, entries []*model.ScheduleEntry) []model.Conflict {
	type week struct {
		key   string
		first string
		hours float64
		ids   []uuid.UUID
	}
	var weeks []*week
	index := make(map[string]*week)
	for _, e := range entries {
		key := model.ISOWeekKey(e.Date)
		w, ok := index[key]
		if !ok {
			w = &week{key: key, first: e.Date}
			index[key] = w
			weeks = append(weeks, w)
		}
		w.hours += e.WorkingHours()
		w.ids = append(w.ids, e.ID)
	}

	var conflicts []model.Conflict
	for _, w := range weeks {
		if w.hours <= d.config.MaxHoursPerWeek {
			continue
		}
		conflicts = append(conflicts, model.Conflict{
			Type:        model.ConflictWeeklyHoursExceeded,
			Severity:    model.SeverityHigh,
			EmployeeIDs: []uuid.UUID{empID},
			EntryIDs:    w.ids,
			Date:        w.first,
			Actual:      w.hours,
			Limit:       d.config.MaxHoursPerWeek,
			Message: fmt.Sprintf("员工 %s 在 %s 共工作 %.1f 小时，超过周上限 %.0f 小时",
				d.name(empID), w.key, w.hours, d.config.MaxHoursPerWeek),
		})
	}
	return conflicts
}

// detectConsecutiveDays 连续工作天数超限，日期间隔不为一天时重新计数
func (d *ConflictDetector) detectConsecutiveDays(empID uuid.UUID, entries []*model.ScheduleEntry) []model.Conflict {
	if len(entries) == 0 || d.config.MaxConsecutiveDays <= 0 {
		return nil
	}

	var dates []string
	idsByDate := make(map[string][]uuid.UUID)
	for _, e := range entries {
		if _, ok := idsByDate[e.Date]; !ok {
			dates = append(dates, e.Date)
		}
		idsByDate[e.Date] = append(idsByDate[e.Date], e.ID)
	}
	sort.Strings(dates)

	var conflicts []model.Conflict
	flush := func(run []string) {
		if len(run) <= d.config.MaxConsecutiveDays {
			return
		}
		var ids []uuid.UUID
		for _, date := range run {
			ids = append(ids, idsByDate[date]...)
		}
		conflicts = append(conflicts, model.Conflict{
			Type:        model.ConflictConsecutiveExceeded,
			Severity:    model.SeverityMedium,
			EmployeeIDs: []uuid.UUID{empID},
			EntryIDs:    ids,
			Date:        run[0],
			Actual:      float64(len(run)),
			Limit:       float64(d.config.MaxConsecutiveDays),
			Message: fmt.Sprintf("员工 %s 自 %s 起连续工作 %d 天，超过限制 %d 天",
				d.name(empID), run[0], len(run), d.config.MaxConsecutiveDays),
		})
	}

	run := []string{dates[0]}
	for _, date := range dates[1:] {
		if model.DaysBetween(run[len(run)-1], date) == 1 {
			run = append(run, date)
			continue
		}
		flush(run)
		run = []string{date}
	}
	flush(run)
	return conflicts
}

// restBetween prev 下班到 next 上班的小时数
// 同一天内重叠的排班已按时间重叠报告，返回 false；跨夜班延伸到次日班次时休息为 0
func restBetween(prev, next *model.ScheduleEntry) (float64, bool) {
	_, prevEnd, err1 := prev.Span()
	nextStart, _, err2 := next.Span()
	if err1 != nil || err2 != nil {
		return 0, false
	}
	gap := nextStart.Sub(prevEnd)
	if gap < 0 {
		if prev.Date == next.Date {
			return 0, false
		}
		return 0, true
	}
	return gap.Hours(), true
}

// groupByEmployee 按员工分组，只保留有效排班
func groupByEmployee(entries []*model.ScheduleEntry) map[uuid.UUID][]*model.ScheduleEntry {
	result := make(map[uuid.UUID][]*model.ScheduleEntry)
	for _, e := range entries {
		if e.IsActive() {
			result[e.EmployeeID] = append(result[e.EmployeeID], e)
		}
	}
	return result
}

// sortEntries 按日期、开始时间排序
func sortEntries(entries []*model.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].StartTime < entries[j].StartTime
	})
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
