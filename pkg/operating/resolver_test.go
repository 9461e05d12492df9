package operating

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

func intPtr(v int) *int { return &v }

func clockPtr(s string) *model.ClockTime {
	c := model.MustClock(s)
	return &c
}

// 2024-03-01 是周五
func newTemplate() *model.OperatingHoursTemplate {
	tpl := model.NewTemplate(uuid.New(), "门店")
	tpl.SetDay(&model.DailyHours{
		Weekday:    time.Friday,
		IsOpen:     true,
		OpenTime:   model.MustClock("09:00"),
		CloseTime:  model.MustClock("18:00"),
		BreakStart: clockPtr("12:00"),
		BreakEnd:   clockPtr("13:00"),
		MinStaff:   2,
		MaxStaff:   4,
		HourlySlots: []model.HourlySlot{
			{Hour: 12, RequiredStaff: 3, Priority: model.PriorityHigh},
			{Hour: 9, RequiredStaff: 2, PreferredStaff: 3},
		},
	})
	tpl.SetDay(&model.DailyHours{Weekday: time.Saturday, IsOpen: false})
	return tpl
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(tpl *model.OperatingHoursTemplate)
		date     string
		ov       *Overrides
		open     bool
		source   Source
		minStaff int
		openAt   string
		closeAt  string
	}{
		{
			name:     "星期模板",
			date:     "2024-03-01",
			open:     true,
			source:   SourceTemplate,
			minStaff: 2,
			openAt:   "09:00",
			closeAt:  "18:00",
		},
		{
			name:   "模板标记休息",
			date:   "2024-03-02",
			source: SourceTemplate,
		},
		{
			name:   "未配置的星期视为休息",
			date:   "2024-03-03",
			source: SourceNone,
		},
		{
			name: "特殊日期停业",
			setup: func(tpl *model.OperatingHoursTemplate) {
				_ = tpl.AddOverride(&model.ScheduleOverride{Date: "2024-03-01", IsActive: true, IsClosed: true, Reason: "盘点"})
			},
			date:   "2024-03-01",
			source: SourceOverride,
		},
		{
			name: "未启用的特殊日期被忽略",
			setup: func(tpl *model.OperatingHoursTemplate) {
				_ = tpl.AddOverride(&model.ScheduleOverride{Date: "2024-03-01", IsActive: false, IsClosed: true})
			},
			date:     "2024-03-01",
			open:     true,
			source:   SourceTemplate,
			minStaff: 2,
			openAt:   "09:00",
			closeAt:  "18:00",
		},
		{
			name: "特殊日期自定义时间且忽略调用方覆盖",
			setup: func(tpl *model.OperatingHoursTemplate) {
				_ = tpl.AddOverride(&model.ScheduleOverride{
					Date: "2024-03-01", IsActive: true,
					OpenTime: clockPtr("10:00"), CloseTime: clockPtr("15:00"), MinStaff: intPtr(5),
				})
			},
			date:     "2024-03-01",
			ov:       &Overrides{MinStaff: intPtr(1)},
			open:     true,
			source:   SourceOverride,
			minStaff: 5,
			openAt:   "10:00",
			closeAt:  "15:00",
		},
		{
			name: "特殊日期只调整人数",
			setup: func(tpl *model.OperatingHoursTemplate) {
				_ = tpl.AddOverride(&model.ScheduleOverride{Date: "2024-03-01", IsActive: true, MinStaff: intPtr(3)})
			},
			date:     "2024-03-01",
			open:     true,
			source:   SourceOverride,
			minStaff: 3,
			openAt:   "09:00",
			closeAt:  "18:00",
		},
		{
			name:     "调用方按字段覆盖",
			date:     "2024-03-01",
			ov:       &Overrides{CloseTime: clockPtr("20:00"), MinStaff: intPtr(1)},
			open:     true,
			source:   SourceTemplate,
			minStaff: 1,
			openAt:   "09:00",
			closeAt:  "20:00",
		},
		{
			name:   "调用方覆盖不会打开休息日",
			date:   "2024-03-02",
			ov:     &Overrides{OpenTime: clockPtr("09:00"), CloseTime: clockPtr("12:00")},
			source: SourceTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := newTemplate()
			if tt.setup != nil {
				tt.setup(tpl)
			}
			eh, err := Resolve(tpl, tt.date, tt.ov)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if eh.IsOpen != tt.open {
				t.Fatalf("IsOpen = %v, expected %v", eh.IsOpen, tt.open)
			}
			if eh.Source != tt.source {
				t.Errorf("Source = %s, expected %s", eh.Source, tt.source)
			}
			if eh.Slots == nil {
				t.Error("Slots 不应为 nil")
			}
			if !tt.open {
				if eh.TotalMinutes() != 0 {
					t.Error("休息日时长应为 0")
				}
				return
			}
			if eh.MinStaff != tt.minStaff {
				t.Errorf("MinStaff = %d, expected %d", eh.MinStaff, tt.minStaff)
			}
			if eh.OpenTime.String() != tt.openAt || eh.CloseTime.String() != tt.closeAt {
				t.Errorf("hours = %s-%s, expected %s-%s", eh.OpenTime, eh.CloseTime, tt.openAt, tt.closeAt)
			}
		})
	}
}

func TestResolve_SlotsSortedAndRequirement(t *testing.T) {
	eh, err := Resolve(newTemplate(), "2024-03-01", nil)
	if err != nil {
		t.Fatal(err)
	}
	if eh.Slots[0].Hour != 9 || eh.Slots[1].Hour != 12 {
		t.Errorf("时段未排序: %+v", eh.Slots)
	}
	if _, ok := eh.BreakInterval(); !ok {
		t.Error("应包含午休区间")
	}

	req, pref, prio := eh.Requirement(12)
	if req != 3 || pref != 3 || prio != model.PriorityHigh {
		t.Errorf("Requirement(12) = %d,%d,%s", req, pref, prio)
	}
	req, pref, _ = eh.Requirement(9)
	if req != 2 || pref != 3 {
		t.Errorf("Requirement(9) = %d,%d", req, pref)
	}
	req, pref, prio = eh.Requirement(15)
	if req != 2 || pref != 2 || prio != model.PriorityNormal {
		t.Errorf("无时段时应回落到最少人数: %d,%d,%s", req, pref, prio)
	}
}

func TestResolve_Errors(t *testing.T) {
	if _, err := Resolve(newTemplate(), "2024-13-01", nil); err == nil {
		t.Error("非法日期应返回错误")
	}
	eh, err := Resolve(nil, "2024-03-01", nil)
	if err != nil || eh.IsOpen {
		t.Error("空模板应视为休息")
	}
}

func TestResolveRange(t *testing.T) {
	days, err := ResolveRange(newTemplate(), model.DateRange{StartDate: "2024-02-29", EndDate: "2024-03-02"}, map[string]*Overrides{
		"2024-03-01": {MinStaff: intPtr(6)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 3 {
		t.Fatalf("len = %d", len(days))
	}
	if days[1].MinStaff != 6 {
		t.Errorf("覆盖未按日期生效: %d", days[1].MinStaff)
	}
	if days[0].IsOpen || days[2].IsOpen {
		t.Error("周四、周六应休息")
	}
}
