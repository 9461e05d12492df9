// Package operating 将营业时间模板、特殊日期设置与调用方覆盖合并为某日的有效营业时间
package operating

import (
	"fmt"
	"time"

	"github.com/paiban/staffplan/pkg/model"
)

// Source 有效营业时间的来源
type Source string

const (
	SourceOverride Source = "override"
	SourceTemplate Source = "template"
	SourceNone     Source = "none"
)

// Overrides 调用方临时指定的字段，非 nil 的字段覆盖模板
type Overrides struct {
	OpenTime  *model.ClockTime `json:"open_time,omitempty"`
	CloseTime *model.ClockTime `json:"close_time,omitempty"`
	MinStaff  *int             `json:"min_staff,omitempty"`
	MaxStaff  *int             `json:"max_staff,omitempty"`
}

// EffectiveHours 某一天最终生效的营业时间
type EffectiveHours struct {
	Date       string             `json:"date"`
	Weekday    time.Weekday       `json:"weekday"`
	IsOpen     bool               `json:"is_open"`
	Reason     string             `json:"reason,omitempty"`
	Source     Source             `json:"source"`
	OpenTime   model.ClockTime    `json:"open_time"`
	CloseTime  model.ClockTime    `json:"close_time"`
	BreakStart *model.ClockTime   `json:"break_start,omitempty"`
	BreakEnd   *model.ClockTime   `json:"break_end,omitempty"`
	MinStaff   int                `json:"min_staff"`
	MaxStaff   int                `json:"max_staff,omitempty"`
	Slots      []model.HourlySlot `json:"slots"`
}

// Interval 营业区间
func (e *EffectiveHours) Interval() model.ShiftInterval {
	return model.NewInterval(e.OpenTime, e.CloseTime)
}

// TotalMinutes 营业总分钟数，休息日为 0
func (e *EffectiveHours) TotalMinutes() int {
	if !e.IsOpen {
		return 0
	}
	return e.Interval().DurationMinutes()
}

// BreakInterval 午休区间
func (e *EffectiveHours) BreakInterval() (model.ShiftInterval, bool) {
	if e.BreakStart == nil || e.BreakEnd == nil {
		return model.ShiftInterval{}, false
	}
	return model.NewInterval(*e.BreakStart, *e.BreakEnd), true
}

// SlotFor 查找某个钟点的人力规则
func (e *EffectiveHours) SlotFor(hour int) (model.HourlySlot, bool) {
	for _, s := range e.Slots {
		if s.Hour == hour {
			return s, true
		}
	}
	return model.HourlySlot{}, false
}

// Requirement 返回某钟点的需求人数、期望人数与优先级，无时段规则时回落到当日最少人数
func (e *EffectiveHours) Requirement(hour int) (required, preferred int, priority model.Priority) {
	if s, ok := e.SlotFor(hour); ok {
		preferred = s.PreferredStaff
		if preferred == 0 {
			preferred = s.RequiredStaff
		}
		priority = s.Priority
		if priority == "" {
			priority = model.PriorityNormal
		}
		return s.RequiredStaff, preferred, priority
	}
	return e.MinStaff, e.MinStaff, model.PriorityNormal
}

func closed(date string, w time.Weekday, source Source, reason string) *EffectiveHours {
	return &EffectiveHours{
		Date:    date,
		Weekday: w,
		Source:  source,
		Reason:  reason,
		Slots:   []model.HourlySlot{},
	}
}

// Resolve 计算某日的有效营业时间
// 顺序：特殊日期关闭 > 特殊日期自定义时间 > 星期模板 > 调用方覆盖
// 缺少数据一律视为休息，不会返回“营业但无人力要求”
func Resolve(tpl *model.OperatingHoursTemplate, date string, ov *Overrides) (*EffectiveHours, error) {
	w, err := model.WeekdayOf(date)
	if err != nil {
		return nil, fmt.Errorf("日期无效 %q: %w", date, err)
	}
	if tpl == nil {
		return closed(date, w, SourceNone, "未配置营业时间模板"), nil
	}

	o := tpl.Override(date)
	if o != nil && !o.IsActive {
		o = nil
	}
	if o != nil && o.IsClosed {
		reason := o.Reason
		if reason == "" {
			reason = "特殊日期停业"
		}
		return closed(date, w, SourceOverride, reason), nil
	}
	if o != nil && o.HasCustomHours() {
		eh := &EffectiveHours{
			Date:      date,
			Weekday:   w,
			IsOpen:    true,
			Reason:    o.Reason,
			Source:    SourceOverride,
			OpenTime:  *o.OpenTime,
			CloseTime: *o.CloseTime,
			Slots:     model.SortSlots(o.HourlySlots),
		}
		if o.MinStaff != nil {
			eh.MinStaff = *o.MinStaff
		}
		if o.MaxStaff != nil {
			eh.MaxStaff = *o.MaxStaff
		}
		return eh, nil
	}

	day := tpl.Day(w)
	if day == nil {
		return closed(date, w, SourceNone, "当日未配置营业时间"), nil
	}
	if !day.IsOpen {
		return closed(date, w, SourceTemplate, "当日休息"), nil
	}

	eh := &EffectiveHours{
		Date:       date,
		Weekday:    w,
		IsOpen:     true,
		Source:     SourceTemplate,
		OpenTime:   day.OpenTime,
		CloseTime:  day.CloseTime,
		BreakStart: day.BreakStart,
		BreakEnd:   day.BreakEnd,
		MinStaff:   day.MinStaff,
		MaxStaff:   day.MaxStaff,
		Slots:      model.SortSlots(day.HourlySlots),
	}

	// 只调整人力的特殊日期叠加在星期模板之上
	if o != nil {
		eh.Source = SourceOverride
		eh.Reason = o.Reason
		if o.MinStaff != nil {
			eh.MinStaff = *o.MinStaff
		}
		if o.MaxStaff != nil {
			eh.MaxStaff = *o.MaxStaff
		}
		if len(o.HourlySlots) > 0 {
			eh.Slots = model.SortSlots(o.HourlySlots)
		}
	}

	if ov != nil {
		if ov.OpenTime != nil {
			eh.OpenTime = *ov.OpenTime
		}
		if ov.CloseTime != nil {
			eh.CloseTime = *ov.CloseTime
		}
		if ov.MinStaff != nil {
			eh.MinStaff = *ov.MinStaff
		}
		if ov.MaxStaff != nil {
			eh.MaxStaff = *ov.MaxStaff
		}
	}
	return eh, nil
}

// ResolveRange 逐日解析日期范围
func ResolveRange(tpl *model.OperatingHoursTemplate, r model.DateRange, ov map[string]*Overrides) ([]*EffectiveHours, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	days := r.Days()
	out := make([]*EffectiveHours, 0, len(days))
	for _, d := range days {
		eh, err := Resolve(tpl, d, ov[d])
		if err != nil {
			return nil, err
		}
		out = append(out, eh)
	}
	return out, nil
}
