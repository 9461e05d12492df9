package draft

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/model"
)

// Activation 草稿激活结果
type Activation struct {
	Entries   []*model.ScheduleEntry `json:"entries"`
	Excluded  int                    `json:"excluded"`
	Conflicts []model.Conflict       `json:"conflicts"` // 同一员工同一天有多条
}

// Activate 把草稿中未排除的项转为正式排班，并将草稿标记为已激活
func Activate(d *model.Draft) (*Activation, error) {
	if d == nil {
		return nil, errors.InvalidInput("draft", "草稿不能为空")
	}
	if d.Status != model.DraftEditing && d.Status != "" {
		return nil, errors.New(errors.CodeDraftNotEditable, fmt.Sprintf("草稿状态为 %s，无法激活", d.Status))
	}

	act := &Activation{
		Entries:   make([]*model.ScheduleEntry, 0, len(d.Items)),
		Conflicts: make([]model.Conflict, 0),
	}

	perDay := make(map[mergeKey][]*model.ScheduleEntry)
	var order []mergeKey
	for _, it := range d.Items {
		if it.IsExcluded() {
			act.Excluded++
			continue
		}
		e := toEntry(d.BusinessID, it)
		act.Entries = append(act.Entries, e)

		k := mergeKey{employee: e.EmployeeID, date: e.Date}
		if _, ok := perDay[k]; !ok {
			order = append(order, k)
		}
		perDay[k] = append(perDay[k], e)
	}

	for _, k := range order {
		if list := perDay[k]; len(list) > 1 {
			act.Conflicts = append(act.Conflicts, duplicateConflict(k, list))
		}
	}

	now := time.Now()
	d.Status = model.DraftActive
	d.ActivatedAt = &now
	return act, nil
}

func toEntry(businessID uuid.UUID, it *model.DraftItem) *model.ScheduleEntry {
	return &model.ScheduleEntry{
		BaseModel:    model.NewBaseModel(),
		BusinessID:   businessID,
		EmployeeID:   it.EmployeeID,
		Date:         it.Date,
		StartTime:    it.StartTime,
		EndTime:      it.EndTime,
		ShiftType:    it.ShiftType,
		Priority:     it.Priority,
		BreakMinutes: it.BreakMins,
		Status:       model.EntryScheduled,
		Notes:        it.Notes,
	}
}

func duplicateConflict(k mergeKey, list []*model.ScheduleEntry) model.Conflict {
	ids := make([]uuid.UUID, len(list))
	for i, e := range list {
		ids[i] = e.ID
	}
	return model.Conflict{
		Type:        model.ConflictDuplicateDraftEntry,
		Severity:    model.SeverityMedium,
		EmployeeIDs: []uuid.UUID{k.employee},
		EntryIDs:    ids,
		Date:        k.date,
		Actual:      float64(len(list)),
		Limit:       1,
		Message:     fmt.Sprintf("员工 %s 在 %s 有 %d 条排班", k.employee, k.date, len(list)),
	}
}
