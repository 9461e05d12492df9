package solver

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/scheduler/scoring"
)

// Selection 单个班次的选人结果
type Selection struct {
	Selected  []scoring.Scored
	Forced    int // 因人手不足被强制加入的人数
	Shortfall int
	Conflicts []model.Conflict
}

// Select 按分数从高到低选人
// 第一轮跳过与已选人员配合冲突的候选人；人数不足时第二轮按分数强制加入被跳过的人，
// 每个冲突组合记录一条 chemistry_conflict_forced；候选人耗尽仍不足时记录 insufficient_staff
func Select(ranked []scoring.Scored, required int, chem *model.ChemistryIndex, shift *model.Shift) Selection {
	var sel Selection
	if required <= 0 {
		return sel
	}

	var skipped []scoring.Scored
	for _, c := range ranked {
		if len(sel.Selected) >= required {
			break
		}
		if len(conflictsWith(c.Employee.ID, sel.Selected, chem)) > 0 {
			skipped = append(skipped, c)
			continue
		}
		sel.Selected = append(sel.Selected, c)
	}

	for _, c := range skipped {
		if len(sel.Selected) >= required {
			break
		}
		for _, other := range conflictsWith(c.Employee.ID, sel.Selected, chem) {
			sel.Conflicts = append(sel.Conflicts, forcedConflict(shift, c.Employee, other, chem))
		}
		sel.Selected = append(sel.Selected, c)
		sel.Forced++
	}

	if n := len(sel.Selected); n < required {
		sel.Shortfall = required - n
		iv := shift.Interval()
		sel.Conflicts = append(sel.Conflicts, model.Conflict{
			Type:     model.ConflictInsufficientStaff,
			Severity: model.SeverityHigh,
			Date:     shift.Date,
			Shift:    &iv,
			Actual:   float64(n),
			Limit:    float64(required),
			Message:  fmt.Sprintf("%s 班次 %s 需要 %d 人，仅安排 %d 人，缺 %d 人", shift.Date, iv, required, n, sel.Shortfall),
		})
	}
	return sel
}

func conflictsWith(id uuid.UUID, selected []scoring.Scored, chem *model.ChemistryIndex) []*model.Employee {
	var out []*model.Employee
	for _, s := range selected {
		if chem.Conflicts(id, s.Employee.ID) {
			out = append(out, s.Employee)
		}
	}
	return out
}

func forcedConflict(shift *model.Shift, a, b *model.Employee, chem *model.ChemistryIndex) model.Conflict {
	iv := shift.Interval()
	score, _ := chem.Score(a.ID, b.ID)
	return model.Conflict{
		Type:        model.ConflictChemistryForced,
		Severity:    model.SeverityMedium,
		EmployeeIDs: []uuid.UUID{a.ID, b.ID},
		Date:        shift.Date,
		Shift:       &iv,
		Actual:      float64(score),
		Limit:       model.ChemistryConflictThreshold,
		Message:     fmt.Sprintf("%s 班次 %s 人手不足，强制安排配合度为 %d 的 %s 与 %s", shift.Date, iv, score, a.Name, b.Name),
	}
}
