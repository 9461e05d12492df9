// Package shiftgen 将有效营业时间拆分为班次
package shiftgen

import (
	"fmt"
	"math"
	"sort"

	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/operating"
)

// Level 拆分粒度
type Level string

const (
	LevelBasic    Level = "basic"    // 全天一个班次
	LevelStandard Level = "standard" // 按时段合并或对半拆分
	LevelAdvanced Level = "advanced" // 按高峰生成重叠班次
)

// ParseLevel 解析拆分粒度，空串视为 standard
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case "":
		return LevelStandard, nil
	case LevelBasic, LevelStandard, LevelAdvanced:
		return Level(s), nil
	}
	return "", fmt.Errorf("未知的优化级别: %s", s)
}

const (
	minAdvancedShift = 3 * 60
	firstHalfRatio   = 0.6
)

// priorityLength 高级模式下按优先级决定的班次时长（分钟）
func priorityLength(p model.Priority) int {
	switch p {
	case model.PriorityCritical:
		return 6 * 60
	case model.PriorityHigh:
		return 5 * 60
	case model.PriorityLow:
		return 3 * 60
	default:
		return 4 * 60
	}
}

// Generate 按粒度生成当日班次，休息日返回 nil
// 班次按开始时间排序，跨夜班次的结束时间可能小于开始时间
func Generate(eh *operating.EffectiveHours, level Level) []model.Shift {
	if eh == nil || !eh.IsOpen || eh.TotalMinutes() <= 0 {
		return nil
	}
	d := newDay(eh)

	switch level {
	case LevelBasic:
		return []model.Shift{d.shift(0, d.total, eh.MinStaff, model.PriorityNormal, nil)}
	case LevelAdvanced:
		if len(d.slots) > 0 {
			return d.advancedSlots()
		}
		return d.advancedRolling()
	default:
		if len(d.slots) > 0 {
			return d.standardSlots()
		}
		return d.standardHalves()
	}
}

// day 以开门时刻为 0 的相对分钟坐标，统一处理跨夜
type day struct {
	eh    *operating.EffectiveHours
	open  int
	total int
	slots []relSlot
}

type relSlot struct {
	model.HourlySlot
	start, end int // 与营业区间取交集后的相对分钟
}

func newDay(eh *operating.EffectiveHours) *day {
	d := &day{eh: eh, open: int(eh.OpenTime), total: eh.TotalMinutes()}
	for _, s := range eh.Slots {
		start := d.rel(s.Hour * 60)
		end := start + 60
		// 开门不在整点时，开门所在钟点的时段只覆盖剩余部分
		if s.Hour == eh.OpenTime.Hour() && eh.OpenTime.Minute() > 0 {
			start, end = 0, 60-eh.OpenTime.Minute()
		}
		if end > d.total {
			end = d.total
		}
		if start >= end {
			continue
		}
		if s.Priority == "" {
			s.Priority = model.PriorityNormal
		}
		d.slots = append(d.slots, relSlot{HourlySlot: s, start: start, end: end})
	}
	sortRel(d.slots)
	return d
}

func (d *day) rel(minuteOfDay int) int {
	return ((minuteOfDay-d.open)%model.MinutesPerDay + model.MinutesPerDay) % model.MinutesPerDay
}

func (d *day) clock(rel int) model.ClockTime {
	return model.ClockTime((d.open + rel) % model.MinutesPerDay)
}

func (d *day) shift(start, end, required int, p model.Priority, skill *model.SkillRequirement) model.Shift {
	if p == "" {
		p = model.PriorityNormal
	}
	s := model.Shift{
		Date:             d.eh.Date,
		StartTime:        d.clock(start),
		EndTime:          d.clock(end),
		RequiredStaff:    required,
		Priority:         p,
		SkillRequirement: skill,
	}
	s.ShiftType = model.ClassifyShiftType(s.Interval())
	return s
}

// standardSlots 合并需求人数与优先级相同的连续时段
func (d *day) standardSlots() []model.Shift {
	var shifts []model.Shift
	cur := d.slots[0]
	skill := cur.SkillRequirement
	for _, s := range d.slots[1:] {
		if s.start == cur.end && s.RequiredStaff == cur.RequiredStaff && s.Priority == cur.Priority {
			cur.end = s.end
			if skill == nil {
				skill = s.SkillRequirement
			}
			continue
		}
		shifts = append(shifts, d.shift(cur.start, cur.end, cur.RequiredStaff, cur.Priority, skill))
		cur, skill = s, s.SkillRequirement
	}
	return append(shifts, d.shift(cur.start, cur.end, cur.RequiredStaff, cur.Priority, skill))
}

// standardHalves 在整点中点拆为两班，前半班需要 60% 的最少人数（向上取整）
func (d *day) standardHalves() []model.Shift {
	half := (d.total / 60 / 2) * 60
	if half == 0 {
		return []model.Shift{d.shift(0, d.total, d.eh.MinStaff, model.PriorityNormal, nil)}
	}
	first := int(math.Ceil(float64(d.eh.MinStaff) * firstHalfRatio))
	return []model.Shift{
		d.shift(0, half, first, model.PriorityNormal, nil),
		d.shift(half, d.total, d.eh.MinStaff, model.PriorityNormal, nil),
	}
}

// advancedSlots 每个时段按优先级生成一个班次，跳过已被上一个班次完全覆盖的时段
func (d *day) advancedSlots() []model.Shift {
	var shifts []model.Shift
	coveredUntil := -1
	for _, s := range d.slots {
		if s.end <= coveredUntil {
			continue
		}
		end := s.start + priorityLength(s.Priority)
		if end > d.total {
			end = d.total
		}
		shifts = append(shifts, d.shift(s.start, end, s.RequiredStaff, s.Priority, s.SkillRequirement))
		coveredUntil = end
	}
	return shifts
}

// advancedRolling 无时段时生成重叠的滚动班次
func (d *day) advancedRolling() []model.Shift {
	length := d.total / 2
	if length > 8*60 {
		length = 8 * 60
	}
	if length < 4*60 {
		length = 4 * 60
	}
	step := length / 2

	var shifts []model.Shift
	for start := 0; start < d.total; start += step {
		end := start + length
		if end > d.total {
			end = d.total
		}
		if end-start < minAdvancedShift {
			break
		}
		shifts = append(shifts, d.shift(start, end, d.eh.MinStaff, model.PriorityNormal, nil))
	}
	return shifts
}

func sortRel(slots []relSlot) {
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].start < slots[j].start })
}
