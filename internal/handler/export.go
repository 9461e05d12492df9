package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/internal/metrics"
	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/export"
	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/stats"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportRequest 导出请求，提供模板时附带覆盖率工作表
type ExportRequest struct {
	Title     string                        `json:"title,omitempty"`
	StartDate string                        `json:"start_date"`
	EndDate   string                        `json:"end_date"`
	Employees []EmployeeInput               `json:"employees"`
	Entries   []*model.ScheduleEntry        `json:"entries"`
	Template  *model.OperatingHoursTemplate `json:"template,omitempty"`
	Leaves    []*model.LeaveRequest         `json:"leaves,omitempty"`
	Conflicts []model.Conflict              `json:"conflicts,omitempty"`
}

// ExportSchedule 导出排班为 xlsx
func (h *Handler) ExportSchedule(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	var ve errors.ValidationErrors
	employees := toEmployees(uuid.Nil, req.Employees, &ve)
	dr := dateRange(req.StartDate, req.EndDate, &ve)
	if ve.HasErrors() {
		metrics.RecordExport(false)
		respondError(w, ve.ToAppError())
		return
	}

	in := export.Input{
		Title:     req.Title,
		DateRange: dr,
		Employees: employees,
		Entries:   req.Entries,
		Conflicts: req.Conflicts,
	}
	if req.Template != nil {
		report, err := stats.NewCoverageAnalyzer().Analyze(req.Template, req.Entries, req.Leaves, dr, stats.Options{})
		if err != nil {
			metrics.RecordExport(false)
			respondError(w, err)
			return
		}
		in.Coverage = report
	}

	buf, filename, err := export.Workbook(in)
	metrics.RecordExport(err == nil)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", contentDisposition(filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
