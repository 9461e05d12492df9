// Package scheduler 排班生成引擎：解析营业时间、拆分班次、过滤评分并选人
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/logger"
	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/operating"
	"github.com/paiban/staffplan/pkg/scheduler/constraint"
	"github.com/paiban/staffplan/pkg/scheduler/constraint/builtin"
	"github.com/paiban/staffplan/pkg/scheduler/scoring"
	"github.com/paiban/staffplan/pkg/scheduler/solver"
	"github.com/paiban/staffplan/pkg/shiftgen"
	"github.com/paiban/staffplan/pkg/stats"
)

// MaxRangeDays 单次生成允许的最大天数
const MaxRangeDays = 366

// EntrySink 生成的排班逐条写入的目标，通常由仓储层实现
type EntrySink = solver.EntrySink

// Request 排班生成请求，所有数据由调用方提前加载
type Request struct {
	BusinessID        uuid.UUID                       `json:"business_id"`
	Template          *model.OperatingHoursTemplate   `json:"template"`
	Employees         []*model.Employee               `json:"employees"`
	Leaves            []*model.LeaveRequest           `json:"leaves,omitempty"`
	Existing          []*model.ScheduleEntry          `json:"existing,omitempty"`
	Chemistry         []model.ChemistryEdge           `json:"chemistry,omitempty"`
	DateRange         model.DateRange                 `json:"date_range"`
	Policy            *constraint.Policy              `json:"policy,omitempty"`
	Weights           *scoring.Weights                `json:"weights,omitempty"`
	OptimizationLevel string                          `json:"optimization_level,omitempty"`
	Mode              string                          `json:"mode,omitempty"`
	HourOverrides     map[string]*operating.Overrides `json:"hour_overrides,omitempty"`
}

// EmployeeSummary 员工排班汇总
type EmployeeSummary struct {
	EmployeeID    uuid.UUID `json:"employee_id"`
	Name          string    `json:"name"`
	Shifts        int       `json:"shifts"`
	TotalHours    float64   `json:"total_hours"`
	NightShifts   int       `json:"night_shifts"`
	WeekendShifts int       `json:"weekend_shifts"`
	Utilization   float64   `json:"utilization"`
}

// TemplateCompliance 生成结果与模板要求的符合程度
type TemplateCompliance struct {
	OpenDays        int                        `json:"open_days"`
	ClosedDays      int                        `json:"closed_days"`
	TotalShifts     int                        `json:"total_shifts"`
	FilledShifts    int                        `json:"filled_shifts"`
	RequiredSlots   int                        `json:"required_slots"`
	AssignedSlots   int                        `json:"assigned_slots"`
	FillRate        float64                    `json:"fill_rate"`
	WorkloadGini    float64                    `json:"workload_gini"`
	FairnessScore   float64                    `json:"fairness_score"`
	ConflictsByType map[model.ConflictType]int `json:"conflicts_by_type"`
}

// Result 排班生成结果
type Result struct {
	Entries         []*model.ScheduleEntry `json:"entries"`
	Conflicts       []model.Conflict       `json:"conflicts"`
	EmployeeSummary []EmployeeSummary      `json:"employee_summary"`
	Compliance      TemplateCompliance     `json:"template_compliance"`
	Recommendations []string               `json:"recommendations"`
	Statistics      solver.Statistics      `json:"statistics"`
	Level           shiftgen.Level         `json:"optimization_level"`
	Mode            solver.Mode            `json:"mode"`
	Duration        time.Duration          `json:"duration"`
}

// Engine 排班引擎，无内部状态，可并发复用
type Engine struct {
	filter  *constraint.Filter
	policy  constraint.Policy
	weights scoring.Weights
	level   shiftgen.Level
	sink    EntrySink
	logger  *logger.SchedulerLogger
}

// Option 引擎选项
type Option func(*Engine)

// WithPolicy 设置默认策略，请求未指定策略时使用
func WithPolicy(p constraint.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithWeights 设置默认评分权重
func WithWeights(w scoring.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithDefaultLevel 设置默认优化级别
func WithDefaultLevel(l shiftgen.Level) Option {
	return func(e *Engine) { e.level = l }
}

// WithFilter 替换资格过滤器
func WithFilter(f *constraint.Filter) Option {
	return func(e *Engine) { e.filter = f }
}

// WithSink 生成时逐条写入排班
func WithSink(s EntrySink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithLogger 设置日志
func WithLogger(l *logger.SchedulerLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine 创建排班引擎
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		filter:  builtin.NewDefaultFilter(),
		policy:  constraint.DefaultPolicy(),
		weights: scoring.DefaultWeights(),
		level:   shiftgen.LevelStandard,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.NewSchedulerLogger()
	}
	return e
}

// plan 校验通过后的输入
type plan struct {
	level     shiftgen.Level
	mode      solver.Mode
	policy    constraint.Policy
	weights   scoring.Weights
	employees []*model.Employee
}

// GenerateSchedule 生成排班
// 输入不合法时返回 *errors.AppError 且不返回任何结果；人手不足等问题作为软冲突记录在结果中
func (e *Engine) GenerateSchedule(ctx context.Context, req *Request) (*Result, error) {
	started := time.Now()

	p, err := e.validate(req)
	if err != nil {
		return nil, err
	}

	days, err := operating.ResolveRange(req.Template, req.DateRange, req.HourOverrides)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidTemplate, "解析营业时间失败")
	}

	e.logger.StartSchedule(req.BusinessID.String(), len(p.employees), len(days), string(p.level), string(p.mode))

	runStats := constraint.NewRunStatistics()
	problem := &solver.Problem{
		BusinessID: req.BusinessID,
		Days:       days,
		Level:      p.level,
		Mode:       p.mode,
		Employees:  p.employees,
		Existing:   req.Existing,
		Chemistry:  model.NewChemistryIndex(req.Chemistry),
		Context:    constraint.NewContext(&p.policy, runStats, req.Leaves),
		Scorer:     scoring.NewScorer(p.weights, &p.policy, runStats, p.employees),
	}

	solved, err := solver.NewGreedySolver(e.filter, e.sink, e.logger).Solve(ctx, problem)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "排班生成被中断")
	}

	fairness := stats.NewFairnessAnalyzer().Analyze(solved.Entries, p.employees)
	res := &Result{
		Entries:         solved.Entries,
		Conflicts:       solved.Conflicts,
		EmployeeSummary: summarize(fairness, runStats),
		Statistics:      solved.Statistics,
		Level:           p.level,
		Mode:            p.mode,
	}
	res.Compliance = compliance(days, solved, fairness)
	res.Recommendations = recommend(res)
	res.Duration = time.Since(started)

	e.logger.ScheduleComplete(req.BusinessID.String(), res.Duration, len(res.Entries), len(res.Conflicts), res.Compliance.FillRate)
	return res, nil
}

func (e *Engine) validate(req *Request) (*plan, error) {
	var ve errors.ValidationErrors
	if req == nil {
		return nil, errors.InvalidInput("request", "请求不能为空")
	}

	if req.Template == nil {
		ve.AddCode(errors.CodeInvalidTemplate, "template", "缺少营业时间模板")
	} else if err := req.Template.Validate(); err != nil {
		ve.AddCode(errors.CodeInvalidTemplate, "template", err.Error())
	}

	if err := req.DateRange.Validate(); err != nil {
		ve.AddCode(errors.CodeInvalidDateRange, "date_range", err.Error())
	} else if n := req.DateRange.Len(); n > MaxRangeDays {
		ve.AddCode(errors.CodeInvalidDateRange, "date_range", fmt.Sprintf("日期范围 %d 天，超过上限 %d 天", n, MaxRangeDays))
	}

	p := &plan{policy: e.policy, weights: e.weights}
	for i, emp := range req.Employees {
		if emp == nil {
			ve.AddCode(errors.CodeInvalidInput, fmt.Sprintf("employees[%d]", i), "员工不能为空")
			continue
		}
		if emp.Ability != nil {
			if err := emp.Ability.Validate(); err != nil {
				ve.AddCode(errors.CodeInvalidInput, fmt.Sprintf("employees[%d].ability", i), err.Error())
			}
		}
		if emp.IsActive() {
			p.employees = append(p.employees, emp)
		}
	}
	if len(p.employees) == 0 {
		ve.AddCode(errors.CodeEmptyEmployees, "employees", "没有可排班的在职员工")
	}

	for i, edge := range req.Chemistry {
		if err := edge.Validate(); err != nil {
			ve.AddCode(errors.CodeInvalidInput, fmt.Sprintf("chemistry[%d]", i), err.Error())
		}
	}

	level := req.OptimizationLevel
	if level == "" {
		level = string(e.level)
	}
	var err error
	if p.level, err = shiftgen.ParseLevel(level); err != nil {
		ve.AddCode(errors.CodeInvalidInput, "optimization_level", err.Error())
	}
	if p.mode, err = solver.ParseMode(req.Mode); err != nil {
		ve.AddCode(errors.CodeInvalidInput, "mode", err.Error())
	}

	if req.Policy != nil {
		p.policy = *req.Policy
	}
	if err := p.policy.Validate(); err != nil {
		ve.AddCode(errors.CodeInvalidInput, "policy", err.Error())
	}
	if req.Weights != nil {
		p.weights = *req.Weights
	}
	if err := p.weights.Validate(); err != nil {
		ve.AddCode(errors.CodeInvalidInput, "weights", err.Error())
	}

	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}
	return p, nil
}

func summarize(m *stats.FairnessMetrics, run *constraint.RunStatistics) []EmployeeSummary {
	out := make([]EmployeeSummary, 0, len(m.EmployeeStats))
	for _, s := range m.EmployeeStats {
		util := 0.0
		if st := run.Lookup(s.EmployeeID); st != nil {
			util = stats.Round(st.Utilization(), stats.RatePlaces)
		}
		out = append(out, EmployeeSummary{
			EmployeeID:    s.EmployeeID,
			Name:          s.EmployeeName,
			Shifts:        s.ShiftCount,
			TotalHours:    stats.Round(s.TotalHours, stats.HourPlaces),
			NightShifts:   s.NightShifts,
			WeekendShifts: s.WeekendShifts,
			Utilization:   util,
		})
	}
	return out
}

func compliance(days []*operating.EffectiveHours, solved *solver.Result, m *stats.FairnessMetrics) TemplateCompliance {
	st := solved.Statistics
	c := TemplateCompliance{
		OpenDays:        st.OpenDays,
		ClosedDays:      len(days) - st.OpenDays,
		TotalShifts:     st.TotalShifts,
		FilledShifts:    st.FilledShifts,
		RequiredSlots:   st.RequiredSlots,
		AssignedSlots:   st.AssignedSlots,
		FillRate:        stats.Ratio(float64(st.AssignedSlots), float64(st.RequiredSlots), 1),
		WorkloadGini:    stats.Round(m.WorkloadGini, stats.RatePlaces),
		FairnessScore:   stats.Round(m.OverallFairnessScore, stats.HourPlaces),
		ConflictsByType: model.CountByType(solved.Conflicts),
	}
	return c
}

// giniWarnLevel 工时基尼系数超过该值时提示分配不均
const giniWarnLevel = 0.3

func recommend(r *Result) []string {
	recs := make([]string, 0)
	counts := r.Compliance.ConflictsByType

	if n := counts[model.ConflictInsufficientStaff]; n > 0 {
		short := r.Compliance.RequiredSlots - r.Compliance.AssignedSlots
		recs = append(recs, fmt.Sprintf("有 %d 个班次人手不足，共缺 %d 人次，建议增加可排班员工或放宽工时约束", n, short))
	}
	if n := counts[model.ConflictChemistryForced]; n > 0 {
		recs = append(recs, fmt.Sprintf("有 %d 对配合度较低的员工被强制安排在同一班次，建议调整团队搭配", n))
	}
	if n := counts[model.ConflictCreationError]; n > 0 {
		recs = append(recs, fmt.Sprintf("有 %d 条排班写入失败，请检查存储服务后重新生成", n))
	}
	if r.Compliance.WorkloadGini > giniWarnLevel {
		recs = append(recs, fmt.Sprintf("工时分配不均（基尼系数 %.2f），建议开启公平性策略", r.Compliance.WorkloadGini))
	}

	var idle []string
	for _, s := range r.EmployeeSummary {
		if s.Shifts == 0 {
			idle = append(idle, s.Name)
		}
	}
	if len(idle) > 0 {
		sort.Strings(idle)
		recs = append(recs, fmt.Sprintf("%d 名员工本次未被安排: %v", len(idle), idle))
	}
	if r.Compliance.OpenDays == 0 {
		recs = append(recs, "所选日期均为休息日，请检查营业时间模板")
	}
	return recs
}
