package model

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{"09:00", 540, false},
		{"9:30", 570, false},
		{"00:00", 0, false},
		{"24:00", 0, false},
		{"23:59", 1439, false},
		{"24:30", 0, true},
		{"12:60", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %d, expected %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClockTime_JSON(t *testing.T) {
	iv := ShiftInterval{Start: MustClock("22:00"), End: MustClock("06:00")}
	data, err := json.Marshal(iv)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"start_time":"22:00","end_time":"06:00"}` {
		t.Errorf("unexpected json %s", data)
	}

	var back ShiftInterval
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != iv {
		t.Errorf("round trip = %v, expected %v", back, iv)
	}
}

func TestShiftInterval_Duration(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected float64
	}{
		{"8小时工作", "09:00", "17:00", 8},
		{"4小时半工作", "09:00", "13:30", 4.5},
		{"跨天夜班", "22:00", "06:00", 8},
		{"全天", "08:00", "08:00", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := NewInterval(MustClock(tt.start), MustClock(tt.end))
			if got := iv.DurationHours(); got != tt.expected {
				t.Errorf("DurationHours() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestShiftInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     [2]string
		expected bool
	}{
		{"首尾相接不重叠", [2]string{"09:00", "13:00"}, [2]string{"13:00", "18:00"}, false},
		{"部分重叠", [2]string{"09:00", "13:00"}, [2]string{"12:00", "18:00"}, true},
		{"包含", [2]string{"09:00", "18:00"}, [2]string{"10:00", "11:00"}, true},
		{"夜班与晚班重叠", [2]string{"22:00", "06:00"}, [2]string{"20:00", "23:00"}, true},
		{"夜班与同日清晨不重叠", [2]string{"22:00", "06:00"}, [2]string{"01:00", "05:00"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewInterval(MustClock(tt.a[0]), MustClock(tt.a[1]))
			b := NewInterval(MustClock(tt.b[0]), MustClock(tt.b[1]))
			if got := a.Overlaps(b); got != tt.expected {
				t.Errorf("Overlaps() = %v, expected %v", got, tt.expected)
			}
			if got := b.Overlaps(a); got != tt.expected {
				t.Errorf("Overlaps() 不对称: %v", got)
			}
		})
	}
}

func TestShiftInterval_Hours(t *testing.T) {
	iv := NewInterval(MustClock("22:30"), MustClock("02:00"))
	if got := iv.Hours(); !reflect.DeepEqual(got, []int{22, 23, 0, 1}) {
		t.Errorf("Hours() = %v", got)
	}

	day := NewInterval(MustClock("09:00"), MustClock("12:00"))
	if got := day.Hours(); !reflect.DeepEqual(got, []int{9, 10, 11}) {
		t.Errorf("Hours() = %v", got)
	}
}

func TestShiftInterval_IsNight(t *testing.T) {
	tests := []struct {
		start    string
		expected bool
	}{
		{"22:00", true},
		{"23:30", true},
		{"05:59", true},
		{"06:00", false},
		{"21:59", false},
	}
	for _, tt := range tests {
		iv := NewInterval(MustClock(tt.start), MustClock("08:00"))
		if got := iv.IsNight(); got != tt.expected {
			t.Errorf("IsNight(%s) = %v, expected %v", tt.start, got, tt.expected)
		}
	}
}

func TestShiftInterval_OnDate(t *testing.T) {
	iv := NewInterval(MustClock("22:00"), MustClock("06:00"))
	start, end, err := iv.OnDate("2024-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}
}

func TestClassifyShiftType(t *testing.T) {
	tests := []struct {
		start, end string
		expected   string
	}{
		{"08:00", "12:00", "morning"},
		{"13:00", "17:00", "afternoon"},
		{"18:00", "22:00", "evening"},
		{"23:00", "07:00", "night"},
		{"08:00", "20:00", "full_day"},
	}
	for _, tt := range tests {
		iv := NewInterval(MustClock(tt.start), MustClock(tt.end))
		if got := ClassifyShiftType(iv); got != tt.expected {
			t.Errorf("ClassifyShiftType(%s) = %s, expected %s", iv, got, tt.expected)
		}
	}
}
