// Package draft 提供排班草稿的合并与激活
package draft

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/model"
)

// Strategy 合并策略
type Strategy string

const (
	StrategyPriority Strategy = "priority"
	StrategyLatest   Strategy = "latest"
	StrategyCombine  Strategy = "combine"
)

// ParseStrategy 解析合并策略
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyPriority, StrategyLatest, StrategyCombine:
		return Strategy(s), nil
	}
	return "", errors.MergeFailed(fmt.Sprintf("未知的合并策略: %q", s))
}

// Contribution 某个草稿对同一员工同一天的贡献
type Contribution struct {
	DraftID  uuid.UUID           `json:"draft_id"`
	ItemID   uuid.UUID           `json:"item_id"`
	Shift    model.ShiftInterval `json:"shift"`
	EditedAt time.Time           `json:"edited_at"`
}

// MergeConflict 多个草稿在同一员工同一天都有排班，无论如何解决都会记录
type MergeConflict struct {
	EmployeeID    uuid.UUID      `json:"employee_id"`
	Date          string         `json:"date"`
	Contributions []Contribution `json:"contributions"`
	Overlapping   bool           `json:"overlapping"`
	Resolution    Strategy       `json:"resolution"` // 实际采用的规则，combine 重叠时为 priority
	Kept          []uuid.UUID    `json:"kept"`
}

// Summary 合并汇总
type Summary struct {
	Strategy        Strategy `json:"strategy"`
	Drafts          int      `json:"drafts"`
	InputItems      int      `json:"input_items"`
	ExcludedItems   int      `json:"excluded_items"`
	MergedItems     int      `json:"merged_items"`
	ConflictKeys    int      `json:"conflict_keys"`
	OverlappingKeys int      `json:"overlapping_keys"`
}

// MergeResult 合并结果
type MergeResult struct {
	Items     []*model.DraftItem `json:"items"`
	Conflicts []MergeConflict    `json:"conflicts"`
	Summary   Summary            `json:"summary"`
}

type mergeKey struct {
	employee uuid.UUID
	date     string
}

type contributed struct {
	item   *model.DraftItem
	draft  uuid.UUID
	source int // 输入序号，同一草稿重复传入时用于区分
	rank   int
}

// Merge 合并两个及以上草稿，按 (员工, 日期) 分组解决冲突
// priorityOrder 中越靠前优先级越高，未列出的草稿按输入顺序排在其后
func Merge(drafts []*model.Draft, strategy Strategy, priorityOrder []uuid.UUID) (*MergeResult, error) {
	if len(drafts) < 2 {
		return nil, errors.MergeFailed("至少需要两个草稿才能合并")
	}
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}
	for i, d := range drafts {
		if d == nil {
			return nil, errors.MergeFailed(fmt.Sprintf("第 %d 个草稿为空", i+1))
		}
	}

	ranks := rankDrafts(drafts, priorityOrder)
	result := &MergeResult{
		Items:     make([]*model.DraftItem, 0),
		Conflicts: make([]MergeConflict, 0),
		Summary:   Summary{Strategy: strategy, Drafts: len(drafts)},
	}

	var order []mergeKey
	groups := make(map[mergeKey][]contributed)
	for i, d := range drafts {
		for _, it := range d.Items {
			result.Summary.InputItems++
			if it.IsExcluded() {
				result.Summary.ExcludedItems++
				continue
			}
			k := mergeKey{employee: it.EmployeeID, date: it.Date}
			if _, ok := groups[k]; !ok {
				order = append(order, k)
			}
			groups[k] = append(groups[k], contributed{item: it, draft: d.ID, source: i, rank: ranks[d.ID]})
		}
	}

	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			result.Items = append(result.Items, group[0].item)
			continue
		}

		kept, applied, overlapping := resolve(group, strategy)
		result.Items = append(result.Items, kept...)
		result.Conflicts = append(result.Conflicts, conflictFor(k, group, kept, applied, overlapping))
		result.Summary.ConflictKeys++
		if overlapping {
			result.Summary.OverlappingKeys++
		}
	}

	result.Summary.MergedItems = len(result.Items)
	return result, nil
}

// rankDrafts 草稿 ID 到优先级序号，越小越优先
func rankDrafts(drafts []*model.Draft, priorityOrder []uuid.UUID) map[uuid.UUID]int {
	ranks := make(map[uuid.UUID]int, len(drafts))
	for i, id := range priorityOrder {
		if _, ok := ranks[id]; !ok {
			ranks[id] = i
		}
	}
	next := len(priorityOrder)
	for _, d := range drafts {
		if _, ok := ranks[d.ID]; !ok {
			ranks[d.ID] = next
			next++
		}
	}
	return ranks
}

func resolve(group []contributed, strategy Strategy) ([]*model.DraftItem, Strategy, bool) {
	overlapping := anyOverlap(group)
	switch {
	case strategy == StrategyCombine && !overlapping:
		kept := make([]*model.DraftItem, len(group))
		for i, c := range group {
			kept[i] = c.item
		}
		return kept, StrategyCombine, false
	case strategy == StrategyLatest:
		return latest(group), StrategyLatest, overlapping
	default:
		return byPriority(group), StrategyPriority, overlapping
	}
}

// anyOverlap 任意两项时间区间相交
func anyOverlap(group []contributed) bool {
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			if group[i].item.Interval().Overlaps(group[j].item.Interval()) {
				return true
			}
		}
	}
	return false
}

// byPriority 保留优先级最高的草稿在该分组中的全部项，同级按输入顺序取第一个草稿
func byPriority(group []contributed) []*model.DraftItem {
	best := group[0]
	for _, c := range group[1:] {
		if c.rank < best.rank || (c.rank == best.rank && c.source < best.source) {
			best = c
		}
	}
	return fromSource(group, best.source)
}

// latest 保留编辑时间最新一项所在草稿在该分组中的全部项，时间相同时取先出现的
func latest(group []contributed) []*model.DraftItem {
	best := group[0]
	for _, c := range group[1:] {
		if c.item.EditedAt().After(best.item.EditedAt()) {
			best = c
		}
	}
	return fromSource(group, best.source)
}

func fromSource(group []contributed, source int) []*model.DraftItem {
	var kept []*model.DraftItem
	for _, c := range group {
		if c.source == source {
			kept = append(kept, c.item)
		}
	}
	return kept
}

func conflictFor(k mergeKey, group []contributed, kept []*model.DraftItem, applied Strategy, overlapping bool) MergeConflict {
	mc := MergeConflict{
		EmployeeID:    k.employee,
		Date:          k.date,
		Contributions: make([]Contribution, 0, len(group)),
		Overlapping:   overlapping,
		Resolution:    applied,
		Kept:          make([]uuid.UUID, 0, len(kept)),
	}
	for _, c := range group {
		mc.Contributions = append(mc.Contributions, Contribution{
			DraftID:  c.draft,
			ItemID:   c.item.ID,
			Shift:    c.item.Interval(),
			EditedAt: c.item.EditedAt(),
		})
	}
	for _, it := range kept {
		mc.Kept = append(mc.Kept, it.ID)
	}
	return mc
}
