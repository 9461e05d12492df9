// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// Priority 优先级
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank 返回优先级排序值，越大越优先
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityLow:
		return 0
	default:
		return 1
	}
}

// IsValid 检查优先级取值
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical, "":
		return true
	}
	return false
}

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DateRange 日期范围（闭区间）
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Validate 检查日期范围是否合法
func (r DateRange) Validate() error {
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return fmt.Errorf("开始日期无效: %w", err)
	}
	end, err := ParseDate(r.EndDate)
	if err != nil {
		return fmt.Errorf("结束日期无效: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("结束日期 %s 早于开始日期 %s", r.EndDate, r.StartDate)
	}
	return nil
}

// Days 返回范围内的全部日期（升序）
func (r DateRange) Days() []string {
	start, err1 := ParseDate(r.StartDate)
	end, err2 := ParseDate(r.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return nil
	}
	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// Len 返回天数
func (r DateRange) Len() int {
	return DaysBetween(r.StartDate, r.EndDate) + 1
}

// Contains 检查日期是否在范围内
func (r DateRange) Contains(date string) bool {
	return date >= r.StartDate && date <= r.EndDate
}

// WithLookback 向前扩展范围，起点取开始日期所在 ISO 周的周一与前推 days 天中较早者，至少前推一天
func (r DateRange) WithLookback(days int) DateRange {
	if days < 1 {
		days = 1
	}
	t, err := ParseDate(r.StartDate)
	if err != nil {
		return r
	}
	start := t.AddDate(0, 0, -days)
	monday := t.AddDate(0, 0, -((int(t.Weekday()) + 6) % 7))
	if monday.Before(start) {
		start = monday
	}
	return DateRange{StartDate: start.Format(DateLayout), EndDate: r.EndDate}
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// AddDays 日期加减天数，解析失败返回空串
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// DaysBetween 返回 to - from 的天数
func DaysBetween(from, to string) int {
	t1, err1 := ParseDate(from)
	t2, err2 := ParseDate(to)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(t2.Sub(t1).Hours() / 24)
}

// WeekdayOf 返回日期对应的星期（0=周日）
func WeekdayOf(date string) (time.Weekday, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// IsWeekend 是否周末
func IsWeekend(w time.Weekday) bool {
	return w == time.Saturday || w == time.Sunday
}

// ISOWeekKey 返回 ISO 周标识，如 2024-W09
func ISOWeekKey(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return ""
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
