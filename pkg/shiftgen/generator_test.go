package shiftgen

import (
	"testing"

	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/operating"
)

func hours(open, close string, minStaff int, slots ...model.HourlySlot) *operating.EffectiveHours {
	return &operating.EffectiveHours{
		Date:      "2024-03-01",
		IsOpen:    true,
		OpenTime:  model.MustClock(open),
		CloseTime: model.MustClock(close),
		MinStaff:  minStaff,
		Slots:     slots,
	}
}

type want struct {
	start, end string
	required   int
}

func assertShifts(t *testing.T, got []model.Shift, expected []want) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("生成 %d 个班次, expected %d: %+v", len(got), len(expected), got)
	}
	for i, w := range expected {
		g := got[i]
		if g.StartTime.String() != w.start || g.EndTime.String() != w.end || g.RequiredStaff != w.required {
			t.Errorf("shift[%d] = %s-%s x%d, expected %s-%s x%d",
				i, g.StartTime, g.EndTime, g.RequiredStaff, w.start, w.end, w.required)
		}
		if g.Date != "2024-03-01" {
			t.Errorf("shift[%d] 日期丢失", i)
		}
	}
}

func TestGenerate_Basic(t *testing.T) {
	got := Generate(hours("09:00", "18:00", 3), LevelBasic)
	assertShifts(t, got, []want{{"09:00", "18:00", 3}})
	if got[0].Priority != model.PriorityNormal {
		t.Errorf("Priority = %s", got[0].Priority)
	}
}

func TestGenerate_StandardMidpoint(t *testing.T) {
	got := Generate(hours("09:00", "18:00", 2), LevelStandard)
	assertShifts(t, got, []want{
		{"09:00", "13:00", 2},
		{"13:00", "18:00", 2},
	})

	got = Generate(hours("08:00", "20:00", 5), LevelStandard)
	assertShifts(t, got, []want{
		{"08:00", "14:00", 3},
		{"14:00", "20:00", 5},
	})
}

func TestGenerate_StandardSlots(t *testing.T) {
	eh := hours("09:00", "14:00", 1,
		model.HourlySlot{Hour: 11, RequiredStaff: 3, Priority: model.PriorityHigh},
		model.HourlySlot{Hour: 9, RequiredStaff: 2},
		model.HourlySlot{Hour: 10, RequiredStaff: 2, Priority: model.PriorityNormal},
		model.HourlySlot{Hour: 12, RequiredStaff: 3, Priority: model.PriorityHigh},
		model.HourlySlot{Hour: 13, RequiredStaff: 2},
	)
	got := Generate(eh, LevelStandard)
	assertShifts(t, got, []want{
		{"09:00", "11:00", 2},
		{"11:00", "13:00", 3},
		{"13:00", "14:00", 2},
	})
	if got[1].Priority != model.PriorityHigh {
		t.Errorf("合并后优先级 = %s", got[1].Priority)
	}
}

func TestGenerate_StandardSlotsGap(t *testing.T) {
	eh := hours("09:00", "18:00", 1,
		model.HourlySlot{Hour: 9, RequiredStaff: 2},
		model.HourlySlot{Hour: 11, RequiredStaff: 2},
		model.HourlySlot{Hour: 20, RequiredStaff: 2}, // 营业时间外
	)
	got := Generate(eh, LevelStandard)
	assertShifts(t, got, []want{
		{"09:00", "10:00", 2},
		{"11:00", "12:00", 2},
	})
}

func TestGenerate_AdvancedSlots(t *testing.T) {
	eh := hours("09:00", "20:00", 1,
		model.HourlySlot{Hour: 9, RequiredStaff: 2, Priority: model.PriorityLow},
		model.HourlySlot{Hour: 10, RequiredStaff: 2},
		model.HourlySlot{Hour: 11, RequiredStaff: 4, Priority: model.PriorityCritical},
		model.HourlySlot{Hour: 12, RequiredStaff: 4, Priority: model.PriorityCritical},
		model.HourlySlot{Hour: 18, RequiredStaff: 3, Priority: model.PriorityHigh},
	)
	got := Generate(eh, LevelAdvanced)
	assertShifts(t, got, []want{
		{"09:00", "12:00", 2}, // low 3h
		{"12:00", "18:00", 4}, // 10、11 点已覆盖，12 点 critical 6h
		{"18:00", "20:00", 3}, // high 5h 截断到打烊
	})
}

func TestGenerate_AdvancedRolling(t *testing.T) {
	// 12 小时: 时长 6h, 步长 3h
	got := Generate(hours("08:00", "20:00", 2), LevelAdvanced)
	assertShifts(t, got, []want{
		{"08:00", "14:00", 2},
		{"11:00", "17:00", 2},
		{"14:00", "20:00", 2},
		{"17:00", "20:00", 2},
	})

	// 6 小时: 时长取下限 4h, 步长 2h, 末尾 2h 的班次被丢弃
	got = Generate(hours("10:00", "16:00", 1), LevelAdvanced)
	assertShifts(t, got, []want{
		{"10:00", "14:00", 1},
		{"12:00", "16:00", 1},
	})
}

func TestGenerate_Overnight(t *testing.T) {
	got := Generate(hours("20:00", "04:00", 2), LevelStandard)
	assertShifts(t, got, []want{
		{"20:00", "00:00", 2},
		{"00:00", "04:00", 2},
	})
	for _, s := range got {
		if s.DurationHours() != 4 {
			t.Errorf("跨夜班次时长 = %v", s.DurationHours())
		}
	}
	if got[1].ShiftType != "night" {
		t.Errorf("ShiftType = %s", got[1].ShiftType)
	}

	slots := Generate(hours("22:00", "02:00", 1,
		model.HourlySlot{Hour: 0, RequiredStaff: 1},
		model.HourlySlot{Hour: 22, RequiredStaff: 1},
		model.HourlySlot{Hour: 23, RequiredStaff: 1},
		model.HourlySlot{Hour: 1, RequiredStaff: 1},
	), LevelStandard)
	assertShifts(t, slots, []want{{"22:00", "02:00", 1}})
}

func TestGenerate_Closed(t *testing.T) {
	eh := hours("09:00", "18:00", 2)
	eh.IsOpen = false
	if got := Generate(eh, LevelStandard); got != nil {
		t.Errorf("休息日不应生成班次: %v", got)
	}
	if got := Generate(nil, LevelBasic); got != nil {
		t.Error("nil 应返回 nil")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelStandard, false},
		{"basic", LevelBasic, false},
		{"advanced", LevelAdvanced, false},
		{"optimal", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}
