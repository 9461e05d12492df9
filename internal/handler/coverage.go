package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/internal/metrics"
	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/operating"
	"github.com/paiban/staffplan/pkg/stats"
)

// CoverageRequest 覆盖率分析请求
type CoverageRequest struct {
	BusinessID              string                          `json:"business_id,omitempty"`
	StartDate               string                          `json:"start_date"`
	EndDate                 string                          `json:"end_date"`
	Template                *model.OperatingHoursTemplate   `json:"template"`
	Entries                 []*model.ScheduleEntry          `json:"entries"`
	Leaves                  []*model.LeaveRequest           `json:"leaves,omitempty"`
	CountStaffOnLeave       bool                            `json:"count_staff_on_leave,omitempty"`
	InefficientOverstaffing int                             `json:"inefficient_overstaffing,omitempty"`
	HourOverrides           map[string]*operating.Overrides `json:"hour_overrides,omitempty"`
}

// AnalyzeCoverage 按小时分析排班覆盖率与人手缺口
func (h *Handler) AnalyzeCoverage(w http.ResponseWriter, r *http.Request) {
	var req CoverageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	var ve errors.ValidationErrors
	businessID := parseBusinessID(req.BusinessID, &ve)
	if ve.HasErrors() {
		respondError(w, ve.ToAppError())
		return
	}

	report, err := stats.NewCoverageAnalyzer().Analyze(
		req.Template,
		req.Entries,
		req.Leaves,
		model.DateRange{StartDate: req.StartDate, EndDate: req.EndDate},
		stats.Options{
			CountStaffOnLeave:       req.CountStaffOnLeave,
			InefficientOverstaffing: req.InefficientOverstaffing,
			Overrides:               req.HourOverrides,
		},
	)
	if err != nil {
		respondError(w, err)
		return
	}

	metrics.RecordConflicts(report.Conflicts)
	if businessID != uuid.Nil && report.Overall.OpenDays > 0 {
		metrics.SetCoverageRate(businessID.String(), report.Overall.AverageCoverage)
	}
	respondJSON(w, http.StatusOK, report)
}
