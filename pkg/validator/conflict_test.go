package validator

import (
	"bytes"
	"testing"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

func entry(emp uuid.UUID, date, start, end string) *model.ScheduleEntry {
	return &model.ScheduleEntry{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: emp,
		Date:       date,
		StartTime:  model.MustClock(start),
		EndTime:    model.MustClock(end),
		Status:     model.EntryScheduled,
	}
}

func daily(emp uuid.UUID, start, end string, dates ...string) []*model.ScheduleEntry {
	out := make([]*model.ScheduleEntry, 0, len(dates))
	for _, d := range dates {
		out = append(out, entry(emp, d, start, end))
	}
	return out
}

func TestConflictDetector_DetectAll(t *testing.T) {
	emp := uuid.New()

	tests := []struct {
		name     string
		entries  []*model.ScheduleEntry
		expected map[model.ConflictType]int
	}{
		{
			name:     "正常排班",
			entries:  daily(emp, "09:00", "17:00", "2024-03-04", "2024-03-05"),
			expected: map[model.ConflictType]int{},
		},
		{
			name: "同日重叠",
			entries: []*model.ScheduleEntry{
				entry(emp, "2024-03-04", "09:00", "13:00"),
				entry(emp, "2024-03-04", "12:00", "16:00"),
			},
			expected: map[model.ConflictType]int{model.ConflictTimeOverlap: 1},
		},
		{
			name: "跨夜重叠",
			entries: []*model.ScheduleEntry{
				entry(emp, "2024-03-04", "22:00", "06:00"),
				entry(emp, "2024-03-04", "23:00", "01:00"),
			},
			expected: map[model.ConflictType]int{model.ConflictTimeOverlap: 1},
		},
		{
			name: "夜班后休息不足",
			entries: []*model.ScheduleEntry{
				entry(emp, "2024-03-01", "22:00", "06:00"),
				entry(emp, "2024-03-02", "14:00", "20:00"),
			},
			expected: map[model.ConflictType]int{model.ConflictInsufficientRest: 1},
		},
		{
			name: "夜班延伸到次日班次",
			entries: []*model.ScheduleEntry{
				entry(emp, "2024-03-01", "22:00", "06:00"),
				entry(emp, "2024-03-02", "05:00", "09:00"),
			},
			expected: map[model.ConflictType]int{model.ConflictInsufficientRest: 1},
		},
		{
			name:     "周工时超限",
			entries:  daily(emp, "09:00", "18:00", "2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08"),
			expected: map[model.ConflictType]int{model.ConflictWeeklyHoursExceeded: 1},
		},
		{
			name: "跨 ISO 周分别计算",
			entries: daily(emp, "09:00", "18:00",
				"2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10", "2024-03-11", "2024-03-12"),
			expected: map[model.ConflictType]int{},
		},
		{
			name: "连续工作超限",
			entries: daily(emp, "09:00", "13:00",
				"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10", "2024-03-11"),
			expected: map[model.ConflictType]int{model.ConflictConsecutiveExceeded: 1},
		},
		{
			name: "中断后重新计数",
			entries: daily(emp, "09:00", "13:00",
				"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-09", "2024-03-10", "2024-03-11", "2024-03-12"),
			expected: map[model.ConflictType]int{},
		},
	}

	d := NewConflictDetector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts := d.DetectAll(tt.entries)
			got := model.CountByType(conflicts)
			if len(got) != len(tt.expected) {
				t.Fatalf("DetectAll() = %v, expected %v", got, tt.expected)
			}
			for typ, n := range tt.expected {
				if got[typ] != n {
					t.Errorf("%s = %d, expected %d", typ, got[typ], n)
				}
			}
		})
	}
}

func TestConflictDetector_Details(t *testing.T) {
	emp := uuid.New()
	d := NewConflictDetector(nil).WithEmployees([]*model.Employee{{BaseModel: model.BaseModel{ID: emp}, Name: "张三"}})

	rest := d.DetectAll([]*model.ScheduleEntry{
		entry(emp, "2024-03-01", "22:00", "06:00"),
		entry(emp, "2024-03-02", "14:00", "20:00"),
	})
	if len(rest) != 1 || rest[0].Actual != 8 || rest[0].Limit != 11 || rest[0].Severity != model.SeverityMedium {
		t.Fatalf("rest = %+v", rest)
	}
	if !bytes.Contains([]byte(rest[0].Message), []byte("张三")) {
		t.Errorf("提示应包含员工姓名: %s", rest[0].Message)
	}

	run := d.DetectAll(daily(emp, "09:00", "13:00",
		"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10"))
	if len(run) != 1 || run[0].Actual != 7 || run[0].Date != "2024-03-04" || len(run[0].EntryIDs) != 7 {
		t.Errorf("consecutive = %+v", run)
	}

	week := d.DetectAll(daily(emp, "09:00", "18:00", "2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08"))
	if len(week) != 1 || week[0].Actual != 45 || week[0].Severity != model.SeverityHigh {
		t.Errorf("weekly = %+v", week)
	}
}

func TestConflictDetector_IgnoresCancelledAndOrdersByEmployee(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	cancelled := entry(a, "2024-03-04", "10:00", "12:00")
	cancelled.Status = model.EntryCancelled

	entries := []*model.ScheduleEntry{
		entry(b, "2024-03-04", "09:00", "13:00"),
		entry(b, "2024-03-04", "12:00", "16:00"),
		entry(a, "2024-03-04", "09:00", "13:00"),
		cancelled,
		entry(a, "2024-03-04", "11:00", "15:00"),
	}

	conflicts := NewConflictDetector(nil).DetectAll(entries)
	if len(conflicts) != 2 {
		t.Fatalf("conflicts = %d, expected 2", len(conflicts))
	}
	first, second := conflicts[0].EmployeeIDs[0], conflicts[1].EmployeeIDs[0]
	if bytes.Compare(first[:], second[:]) > 0 {
		t.Error("结果应按员工 ID 排序")
	}

	// 多次检测结果一致
	again := NewConflictDetector(nil).DetectAll(entries)
	for i := range conflicts {
		if conflicts[i].Message != again[i].Message {
			t.Errorf("检测结果不稳定: %s vs %s", conflicts[i].Message, again[i].Message)
		}
	}
}

func TestConflictDetector_DetectForEntry(t *testing.T) {
	emp, other := uuid.New(), uuid.New()
	existing := []*model.ScheduleEntry{
		entry(emp, "2024-03-04", "09:00", "13:00"),
		entry(emp, "2024-03-05", "22:00", "06:00"),
		entry(other, "2024-03-04", "09:00", "18:00"),
	}
	d := NewConflictDetector(nil)

	tests := []struct {
		name     string
		entry    *model.ScheduleEntry
		expected model.ConflictType
		count    int
	}{
		{"与已有排班重叠", entry(emp, "2024-03-04", "12:00", "16:00"), model.ConflictTimeOverlap, 1},
		{"夜班后次日过早上班", entry(emp, "2024-03-06", "12:00", "16:00"), model.ConflictInsufficientRest, 1},
		{"夜班前休息不足", entry(emp, "2024-03-05", "08:00", "14:00"), model.ConflictInsufficientRest, 1},
		{"无冲突", entry(emp, "2024-03-08", "09:00", "17:00"), "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.DetectForEntry(tt.entry, existing)
			if len(got) != tt.count {
				t.Fatalf("DetectForEntry() = %+v", got)
			}
			if tt.count > 0 && got[0].Type != tt.expected {
				t.Errorf("Type = %s, expected %s", got[0].Type, tt.expected)
			}
		})
	}

	// 修改已有排班时不与自身比较
	if got := d.DetectForEntry(existing[0], existing); len(got) != 0 {
		t.Errorf("不应与自身冲突: %+v", got)
	}
}
