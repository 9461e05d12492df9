package model

import (
	"time"

	"github.com/google/uuid"
)

// Shift 由营业时间拆分出的班次窗口
type Shift struct {
	Date             string            `json:"date"`
	StartTime        ClockTime         `json:"start_time"`
	EndTime          ClockTime         `json:"end_time"`
	RequiredStaff    int               `json:"required_staff"`
	Priority         Priority          `json:"priority"`
	SkillRequirement *SkillRequirement `json:"skill_requirement,omitempty"`
	ShiftType        string            `json:"shift_type"` // morning/afternoon/evening/night/full_day
}

// Interval 返回班次区间
func (s *Shift) Interval() ShiftInterval {
	return ShiftInterval{Start: s.StartTime, End: s.EndTime}
}

// DurationHours 返回班次时长（小时）
func (s *Shift) DurationHours() float64 {
	return s.Interval().DurationHours()
}

// IsNightShift 检查是否为夜班
func (s *Shift) IsNightShift() bool {
	return s.Interval().IsNight()
}

// EntryStatus 排班状态
type EntryStatus string

const (
	EntryScheduled EntryStatus = "scheduled"
	EntryCancelled EntryStatus = "cancelled"
)

// ScheduleEntry 已确认的排班记录
type ScheduleEntry struct {
	BaseModel
	BusinessID      uuid.UUID   `json:"business_id" db:"business_id"`
	EmployeeID      uuid.UUID   `json:"employee_id" db:"employee_id"`
	Date            string      `json:"date" db:"date"`
	StartTime       ClockTime   `json:"start_time" db:"start_time"`
	EndTime         ClockTime   `json:"end_time" db:"end_time"`
	ShiftType       string      `json:"shift_type" db:"shift_type"`
	Priority        Priority    `json:"priority" db:"priority"`
	BreakMinutes    int         `json:"break_minutes" db:"break_minutes"`
	Status          EntryStatus `json:"status" db:"status"`
	IsAutoGenerated bool        `json:"is_auto_generated" db:"is_auto_generated"`
	Notes           string      `json:"notes,omitempty" db:"notes"`
}

// Interval 返回排班区间
func (e *ScheduleEntry) Interval() ShiftInterval {
	return ShiftInterval{Start: e.StartTime, End: e.EndTime}
}

// IsActive 未取消的排班
func (e *ScheduleEntry) IsActive() bool {
	return e.Status != EntryCancelled
}

// WorkingHours 计算工作时长（小时）
func (e *ScheduleEntry) WorkingHours() float64 {
	return e.Interval().DurationHours()
}

// IsOnDate 检查排班是否在指定日期
func (e *ScheduleEntry) IsOnDate(date string) bool {
	return e.Date == date
}

// Span 返回绝对起止时间
func (e *ScheduleEntry) Span() (time.Time, time.Time, error) {
	return e.Interval().OnDate(e.Date)
}

// DraftItemStatus 草稿项状态
type DraftItemStatus string

const (
	DraftItemPlanned  DraftItemStatus = "planned"
	DraftItemExcluded DraftItemStatus = "excluded"
)

// DraftItem 草稿中的排班项，激活前不受每日一条的限制
type DraftItem struct {
	BaseModel
	DraftID    uuid.UUID       `json:"draft_id" db:"draft_id"`
	EmployeeID uuid.UUID       `json:"employee_id" db:"employee_id"`
	Date       string          `json:"date" db:"date"`
	StartTime  ClockTime       `json:"start_time" db:"start_time"`
	EndTime    ClockTime       `json:"end_time" db:"end_time"`
	ShiftType  string          `json:"shift_type" db:"shift_type"`
	Priority   Priority        `json:"priority,omitempty" db:"priority"`
	BreakMins  int             `json:"break_minutes,omitempty" db:"break_minutes"`
	Status     DraftItemStatus `json:"status" db:"status"`
	Notes      string          `json:"notes,omitempty" db:"notes"`
}

// Interval 返回草稿项区间
func (i *DraftItem) Interval() ShiftInterval {
	return ShiftInterval{Start: i.StartTime, End: i.EndTime}
}

// IsExcluded 是否已排除
func (i *DraftItem) IsExcluded() bool {
	return i.Status == DraftItemExcluded
}

// EditedAt 最后编辑时间
func (i *DraftItem) EditedAt() time.Time {
	if i.UpdatedAt.IsZero() {
		return i.CreatedAt
	}
	return i.UpdatedAt
}

// DraftStatus 草稿状态
type DraftStatus string

const (
	DraftEditing  DraftStatus = "draft"
	DraftActive   DraftStatus = "active"
	DraftArchived DraftStatus = "archived"
)

// Draft 排班草稿版本
type Draft struct {
	BaseModel
	BusinessID  uuid.UUID    `json:"business_id" db:"business_id"`
	Name        string       `json:"name" db:"name"`
	Version     int          `json:"version" db:"version"`
	Status      DraftStatus  `json:"status" db:"status"`
	StartDate   string       `json:"start_date" db:"start_date"`
	EndDate     string       `json:"end_date" db:"end_date"`
	ActivatedAt *time.Time   `json:"activated_at,omitempty" db:"activated_at"`
	Items       []*DraftItem `json:"items,omitempty" db:"-"`
}

// ExcludedCount 已排除的草稿项数
func (d *Draft) ExcludedCount() int {
	n := 0
	for _, it := range d.Items {
		if it.IsExcluded() {
			n++
		}
	}
	return n
}
