package model

import (
	"github.com/google/uuid"
)

// ConflictType 冲突类型
type ConflictType string

const (
	// 排班检测
	ConflictTimeOverlap         ConflictType = "time_overlap"
	ConflictInsufficientRest    ConflictType = "insufficient_rest"
	ConflictWeeklyHoursExceeded ConflictType = "weekly_hours_exceeded"
	ConflictConsecutiveExceeded ConflictType = "consecutive_days_exceeded"

	// 生成过程中的软冲突
	ConflictInsufficientStaff   ConflictType = "insufficient_staff"
	ConflictChemistryForced     ConflictType = "chemistry_conflict_forced"
	ConflictCreationError       ConflictType = "creation_error"
	ConflictUnderstaffedHour    ConflictType = "understaffed_hour"
	ConflictDuplicateDraftEntry ConflictType = "duplicate_draft_entry"
)

// Severity 严重程度
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Conflict 检测到的问题，仅用于报告，不会修改排班
type Conflict struct {
	Type        ConflictType   `json:"type"`
	Severity    Severity       `json:"severity"`
	EmployeeIDs []uuid.UUID    `json:"employee_ids,omitempty"`
	EntryIDs    []uuid.UUID    `json:"entry_ids,omitempty"`
	Date        string         `json:"date,omitempty"`
	Shift       *ShiftInterval `json:"shift,omitempty"`
	Actual      float64        `json:"actual,omitempty"`
	Limit       float64        `json:"limit,omitempty"`
	Message     string         `json:"message"`
}

// IsSoft 生成过程中记录的软冲突
func (c *Conflict) IsSoft() bool {
	switch c.Type {
	case ConflictInsufficientStaff, ConflictChemistryForced, ConflictCreationError, ConflictUnderstaffedHour:
		return true
	}
	return false
}

// CountByType 按类型统计冲突
func CountByType(conflicts []Conflict) map[ConflictType]int {
	counts := make(map[ConflictType]int)
	for _, c := range conflicts {
		counts[c.Type]++
	}
	return counts
}
