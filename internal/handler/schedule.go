package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/paiban/staffplan/internal/metrics"
	"github.com/paiban/staffplan/internal/repository"
	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/logger"
	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/operating"
	"github.com/paiban/staffplan/pkg/scheduler"
	"github.com/paiban/staffplan/pkg/scheduler/constraint"
	"github.com/paiban/staffplan/pkg/scheduler/scoring"
	"github.com/paiban/staffplan/pkg/scheduler/solver"
	"github.com/paiban/staffplan/pkg/validator"
)

// GenerateOptions 生成选项
type GenerateOptions struct {
	Policy            *constraint.Policy              `json:"policy,omitempty"`
	Weights           *scoring.Weights                `json:"weights,omitempty"`
	OptimizationLevel string                          `json:"optimization_level,omitempty"` // basic/standard/advanced
	Mode              string                          `json:"mode,omitempty"`               // replace/append/fill_gaps
	HourOverrides     map[string]*operating.Overrides `json:"hour_overrides,omitempty"`
	TimeoutSeconds    int                             `json:"timeout_seconds,omitempty"`
}

// GenerateRequest 排班生成请求，所有输入随请求提交
type GenerateRequest struct {
	BusinessID string                        `json:"business_id"`
	StartDate  string                        `json:"start_date"`
	EndDate    string                        `json:"end_date"`
	Template   *model.OperatingHoursTemplate `json:"template"`
	Employees  []EmployeeInput               `json:"employees"`
	Leaves     []*model.LeaveRequest         `json:"leaves,omitempty"`
	Existing   []*model.ScheduleEntry        `json:"existing,omitempty"`
	Chemistry  []model.ChemistryEdge         `json:"chemistry,omitempty"`
	GenerateOptions
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success  bool              `json:"success"`
	Partial  bool              `json:"partial"` // 存在人手不足
	Message  string            `json:"message,omitempty"`
	Result   *scheduler.Result `json:"result"`
	Duration string            `json:"duration"`
}

// Generate 根据请求提交的快照生成排班
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	var ve errors.ValidationErrors
	businessID := parseBusinessID(req.BusinessID, &ve)
	employees := toEmployees(businessID, req.Employees, &ve)
	if ve.HasErrors() {
		respondError(w, ve.ToAppError())
		return
	}

	engineReq := &scheduler.Request{
		BusinessID: businessID,
		Template:   req.Template,
		Employees:  employees,
		Leaves:     req.Leaves,
		Existing:   req.Existing,
		Chemistry:  req.Chemistry,
		DateRange:  model.DateRange{StartDate: req.StartDate, EndDate: req.EndDate},
	}
	req.GenerateOptions.apply(engineReq)

	ctx, cancel := h.withTimeout(r.Context(), req.TimeoutSeconds)
	defer cancel()

	res, err := h.engine.GenerateSchedule(ctx, engineReq)
	h.recordGeneration(engineReq, res, err)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newGenerateResponse(res))
}

// BusinessGenerateRequest 基于数据库数据的排班生成请求
type BusinessGenerateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	GenerateOptions
}

// GenerateForBusiness 读取商户数据生成排班并写入数据库
// replace 模式先在同一事务内取消日期范围内的原有排班
func (h *Handler) GenerateForBusiness(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	businessID, err := uuid.Parse(chi.URLParam(r, "businessID"))
	if err != nil {
		respondError(w, errors.InvalidInput("businessID", "无效的商户ID格式"))
		return
	}
	var req BusinessGenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	var ve errors.ValidationErrors
	dr := dateRange(req.StartDate, req.EndDate, &ve)
	mode, modeErr := solver.ParseMode(req.Mode)
	if modeErr != nil {
		ve.AddCode(errors.CodeInvalidInput, "mode", modeErr.Error())
	}
	if ve.HasErrors() {
		respondError(w, ve.ToAppError())
		return
	}

	ctx, cancel := h.withTimeout(r.Context(), req.TimeoutSeconds)
	defer cancel()

	policy := h.policy
	if req.Policy != nil {
		policy = *req.Policy
	}
	snap, err := h.store.LoadSnapshot(ctx, businessID, dr, policy.MaxConsecutiveDays)
	if err != nil {
		respondError(w, err)
		return
	}

	engineReq := &scheduler.Request{
		BusinessID: businessID,
		Template:   snap.Template,
		Employees:  snap.Employees,
		Leaves:     snap.Leaves,
		Existing:   activeEntries(snap.Existing),
		Chemistry:  snap.Chemistry,
		DateRange:  dr,
	}
	req.GenerateOptions.apply(engineReq)

	var res *scheduler.Result
	var cancelled int64
	txErr := h.store.ScheduleTx(ctx, func(sched *repository.ScheduleRepository) error {
		if mode == solver.ModeReplace {
			n, err := sched.CancelRange(ctx, businessID, dr)
			if err != nil {
				return err
			}
			cancelled = n
		}
		var genErr error
		res, genErr = h.engineWith(scheduler.WithSink(sched)).GenerateSchedule(ctx, engineReq)
		return genErr
	})
	h.recordGeneration(engineReq, res, txErr)
	if txErr != nil {
		respondError(w, txErr)
		return
	}

	logger.Info().
		Str("business_id", businessID.String()).
		Str("mode", string(mode)).
		Int64("cancelled", cancelled).
		Int("entries", len(res.Entries)).
		Msg("商户排班已生成并保存")
	respondJSON(w, http.StatusOK, newGenerateResponse(res))
}

func (o GenerateOptions) apply(req *scheduler.Request) {
	req.Policy = o.Policy
	req.Weights = o.Weights
	req.OptimizationLevel = o.OptimizationLevel
	req.Mode = o.Mode
	req.HourOverrides = o.HourOverrides
}

func activeEntries(entries []*model.ScheduleEntry) []*model.ScheduleEntry {
	out := make([]*model.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsActive() {
			out = append(out, e)
		}
	}
	return out
}

func newGenerateResponse(res *scheduler.Result) GenerateResponse {
	resp := GenerateResponse{
		Success:  true,
		Result:   res,
		Duration: res.Duration.String(),
	}
	if res.Compliance.AssignedSlots < res.Compliance.RequiredSlots {
		resp.Partial = true
		resp.Message = "生成了部分排班方案，存在人手不足的班次"
	}
	return resp
}

func (h *Handler) recordGeneration(req *scheduler.Request, res *scheduler.Result, err error) {
	if err != nil || res == nil {
		metrics.RecordScheduleGeneration(req.OptimizationLevel, req.Mode, false, 0, 0)
		return
	}
	metrics.RecordScheduleGeneration(string(res.Level), string(res.Mode), true, res.Duration, len(res.Entries))
	metrics.RecordConflicts(res.Conflicts)
	metrics.SetFairnessGini(req.BusinessID.String(), res.Compliance.WorkloadGini)
}

// ValidateRequest 排班验证请求，Entry 非空时只检测该条与其余排班的冲突
type ValidateRequest struct {
	Entries   []*model.ScheduleEntry    `json:"entries"`
	Entry     *model.ScheduleEntry      `json:"entry,omitempty"`
	Employees []EmployeeInput           `json:"employees,omitempty"`
	Config    *validator.DetectorConfig `json:"config,omitempty"`
}

// ValidateResponse 验证响应
type ValidateResponse struct {
	IsValid   bool                       `json:"is_valid"`
	Conflicts []model.Conflict           `json:"conflicts"`
	ByType    map[model.ConflictType]int `json:"by_type"`
}

// Validate 检测排班冲突，不修改排班
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	var ve errors.ValidationErrors
	employees := toEmployees(uuid.Nil, req.Employees, &ve)
	if ve.HasErrors() {
		respondError(w, ve.ToAppError())
		return
	}

	cfg := req.Config
	if cfg == nil {
		cfg = h.detectorConfig()
	}
	detector := validator.NewConflictDetector(cfg).WithEmployees(employees)

	var conflicts []model.Conflict
	if req.Entry != nil {
		conflicts = detector.DetectForEntry(req.Entry, req.Entries)
	} else {
		conflicts = detector.DetectAll(req.Entries)
	}
	metrics.RecordConflicts(conflicts)

	respondJSON(w, http.StatusOK, ValidateResponse{
		IsValid:   len(conflicts) == 0,
		Conflicts: conflicts,
		ByType:    model.CountByType(conflicts),
	})
}
