package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// MinutesPerDay 一天的分钟数
const MinutesPerDay = 24 * 60

// ClockTime 一天中的时刻（距 00:00 的分钟数），文本形式为 HH:MM
type ClockTime int

// Clock 由小时、分钟构造时刻
func Clock(hour, minute int) ClockTime {
	return ClockTime(((hour*60+minute)%MinutesPerDay + MinutesPerDay) % MinutesPerDay)
}

// ParseClock 解析 HH:MM，允许 24:00 表示次日零点
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("时间格式无效 %q: 应为 HH:MM", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("时间超出范围 %q", s)
	}
	return Clock(h, m), nil
}

// MustClock 解析失败时 panic，仅用于常量和测试
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hour 小时部分
func (c ClockTime) Hour() int { return int(c) / 60 }

// Minute 分钟部分
func (c ClockTime) Minute() int { return int(c) % 60 }

// String 返回 HH:MM
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalText 实现 encoding.TextMarshaler
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (c *ClockTime) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Value 实现 driver.Valuer
func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan 实现 sql.Scanner
func (c *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return c.UnmarshalText([]byte(v))
	case []byte:
		return c.UnmarshalText(v)
	case int64:
		*c = ClockTime(v)
		return nil
	case nil:
		*c = 0
		return nil
	}
	return fmt.Errorf("无法将 %T 转换为 ClockTime", src)
}

// ShiftInterval 班次时间区间 [Start, End)
// End <= Start 表示跨夜班次，结束时间在次日
type ShiftInterval struct {
	Start ClockTime `json:"start_time"`
	End   ClockTime `json:"end_time"`
}

// NewInterval 构造区间
func NewInterval(start, end ClockTime) ShiftInterval {
	return ShiftInterval{Start: start, End: end}
}

// IsOvernight 是否跨夜
func (iv ShiftInterval) IsOvernight() bool {
	return iv.End <= iv.Start
}

// EndMinute 返回以当日零点为基准的结束分钟，跨夜时加 1440
func (iv ShiftInterval) EndMinute() int {
	if iv.IsOvernight() {
		return int(iv.End) + MinutesPerDay
	}
	return int(iv.End)
}

// DurationMinutes 时长（分钟）
func (iv ShiftInterval) DurationMinutes() int {
	return iv.EndMinute() - int(iv.Start)
}

// DurationHours 时长（小时）
func (iv ShiftInterval) DurationHours() float64 {
	return float64(iv.DurationMinutes()) / 60.0
}

// Overlaps 检查同一天内的两个区间是否重叠
func (iv ShiftInterval) Overlaps(other ShiftInterval) bool {
	return int(iv.Start) < other.EndMinute() && int(other.Start) < iv.EndMinute()
}

// OverlapMinutes 同一天内两个区间的重叠分钟数
func (iv ShiftInterval) OverlapMinutes(other ShiftInterval) int {
	start := max(int(iv.Start), int(other.Start))
	end := min(iv.EndMinute(), other.EndMinute())
	if end <= start {
		return 0
	}
	return end - start
}

// ContainsMinute 检查以当日零点为基准的分钟是否落在区间内，可传入 >=1440 的值表示次日
func (iv ShiftInterval) ContainsMinute(m int) bool {
	return m >= int(iv.Start) && m < iv.EndMinute()
}

// Hours 返回区间覆盖到的钟点（0-23），按时间顺序
func (iv ShiftInterval) Hours() []int {
	var hours []int
	first := int(iv.Start) / 60
	last := (iv.EndMinute() - 1) / 60
	for h := first; h <= last; h++ {
		hours = append(hours, h%24)
	}
	return hours
}

// IsNight 是否夜班：开始于 22:00 之后或 06:00 之前
func (iv ShiftInterval) IsNight() bool {
	return iv.Start.Hour() >= 22 || iv.Start.Hour() < 6
}

// On 将区间放到具体日期上，返回绝对起止时间
func (iv ShiftInterval) On(date time.Time) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	start := day.Add(time.Duration(iv.Start) * time.Minute)
	end := day.Add(time.Duration(iv.EndMinute()) * time.Minute)
	return start, end
}

// OnDate 同 On，使用 YYYY-MM-DD 日期
func (iv ShiftInterval) OnDate(date string) (time.Time, time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, end := iv.On(d)
	return start, end, nil
}

// String 返回 HH:MM-HH:MM
func (iv ShiftInterval) String() string {
	return iv.Start.String() + "-" + iv.End.String()
}

// ClassifyShiftType 按开始时间和时长推断班次类型
func ClassifyShiftType(iv ShiftInterval) string {
	if iv.DurationHours() >= 10 {
		return "full_day"
	}
	if iv.IsNight() {
		return "night"
	}
	switch h := iv.Start.Hour(); {
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	default:
		return "evening"
	}
}
