// Package scoring 计算员工对班次的适配分并排序
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/scheduler/constraint"
)

// Weights 评分权重
type Weights struct {
	Ability      float64 `json:"ability"`
	Preference   float64 `json:"preference"`
	Seniority    float64 `json:"seniority"`
	Availability float64 `json:"availability"`
}

// DefaultWeights 默认权重
func DefaultWeights() Weights {
	return Weights{
		Ability:      0.4,
		Preference:   0.3,
		Seniority:    1.0,
		Availability: 0.3,
	}
}

// Validate 权重不能为负
func (w Weights) Validate() error {
	if w.Ability < 0 || w.Preference < 0 || w.Seniority < 0 || w.Availability < 0 {
		return fmt.Errorf("评分权重不能为负: %+v", w)
	}
	return nil
}

const (
	fairnessMin      = -5.0
	fairnessMax      = 10.0
	seniorityCap     = 5.0
	criticalBonus    = 5.0
	highBonus        = 3.0
	skillMatchBonus  = 3.0
	weekLoadPenalty  = 3.0
	streakPenalty    = 2.0
	preferDayBonus   = 10.0
	avoidDayPenalty  = 5.0
	preferHourFactor = 2.0
)

// Breakdown 各项得分，便于解释排序结果
type Breakdown struct {
	Ability      float64 `json:"ability"`
	Preference   float64 `json:"preference"`
	Fairness     float64 `json:"fairness"`
	Seniority    float64 `json:"seniority"`
	Availability float64 `json:"availability"`
	Priority     float64 `json:"priority"`
	SkillMatch   float64 `json:"skill_match"`
	Penalty      float64 `json:"penalty"`
	Total        float64 `json:"total"`
}

// Scored 带分数的候选人
type Scored struct {
	Employee *model.Employee
	Score    Breakdown
}

// Scorer 评分器，持有本次生成的运行统计
type Scorer struct {
	weights Weights
	policy  *constraint.Policy
	stats   *constraint.RunStatistics
	cohort  []uuid.UUID
}

// NewScorer 创建评分器，cohort 为参与公平性平均的全部员工
func NewScorer(w Weights, policy *constraint.Policy, stats *constraint.RunStatistics, cohort []*model.Employee) *Scorer {
	ids := make([]uuid.UUID, 0, len(cohort))
	for _, e := range cohort {
		ids = append(ids, e.ID)
	}
	return &Scorer{weights: w, policy: policy, stats: stats, cohort: ids}
}

// averageDays 公平性基准：设置了固定值则使用固定值，否则取当批员工的平均排班天数
func (s *Scorer) averageDays() float64 {
	if s.policy.FairnessBaseline > 0 {
		return s.policy.FairnessBaseline
	}
	return s.stats.AverageScheduledDays(s.cohort)
}

// Score 计算单个员工对班次的得分
func (s *Scorer) Score(e *model.Employee, shift *model.Shift) Breakdown {
	return s.score(e, shift, s.averageDays())
}

func (s *Scorer) score(e *model.Employee, shift *model.Shift, avgDays float64) Breakdown {
	var b Breakdown
	st := s.stats.Lookup(e.ID)

	if e.Ability != nil {
		b.Ability = e.Ability.Weighted() * s.weights.Ability * 10
	}

	if p := e.Preference; p != nil {
		w := s.weights.Preference
		if wd, err := model.WeekdayOf(shift.Date); err == nil {
			if p.Prefers(wd) {
				b.Preference += w * preferDayBonus
			}
			if p.Avoids(wd) {
				b.Preference -= w * avoidDayPenalty
			}
		}
		b.Preference += w * preferHourFactor * float64(p.PreferredHourOverlap(shift.Interval().Hours()))
	}

	scheduled := 0
	runHours := 0.0
	if st != nil {
		scheduled = st.ScheduledDays
		runHours = st.RunHours
	}

	if s.policy.EnableFairness {
		b.Fairness = clamp((avgDays-float64(scheduled))*2, fairnessMin, fairnessMax)
	}

	b.Seniority = math.Min(e.YearsOfService(shift.Date)*s.weights.Seniority, seniorityCap)

	utilization := math.Min(runHours/constraint.MonthlyHoursTarget, 1)
	b.Availability = (1 - utilization) * s.weights.Availability * 10

	switch shift.Priority {
	case model.PriorityCritical:
		b.Priority = criticalBonus
	case model.PriorityHigh:
		b.Priority = highBonus
	}

	if req := shift.SkillRequirement; req != nil {
		b.SkillMatch = skillMatchBonus * req.MatchRatio(e.Ability)
	}

	if s.policy.MaxHoursPerWeek > 0 {
		b.Penalty += s.stats.WeekHours(e.ID, shift.Date) / s.policy.MaxHoursPerWeek * weekLoadPenalty
	}
	if limit := s.policy.ConsecutiveLimit(e); limit > 0 {
		b.Penalty += float64(s.stats.ConsecutiveBefore(e.ID, shift.Date)) / float64(limit) * streakPenalty
	}

	total := b.Ability + b.Preference + b.Fairness + b.Seniority + b.Availability + b.Priority + b.SkillMatch - b.Penalty
	b.Total = math.Max(0, total)
	return b
}

// Rank 计算候选人得分并按分数降序排列，同分保持输入顺序
func (s *Scorer) Rank(candidates []*model.Employee, shift *model.Shift) []Scored {
	avg := s.averageDays()
	out := make([]Scored, 0, len(candidates))
	for _, e := range candidates {
		out = append(out, Scored{Employee: e, Score: s.score(e, shift, avg)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.Total > out[j].Score.Total
	})
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
