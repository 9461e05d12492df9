package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/internal/metrics"
	"github.com/paiban/staffplan/pkg/draft"
	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/logger"
	"github.com/paiban/staffplan/pkg/model"
)

// MergeRequest 草稿合并请求，草稿可随请求提交，也可通过 ID 从数据库读取
type MergeRequest struct {
	Drafts        []*model.Draft `json:"drafts,omitempty"`
	DraftIDs      []string       `json:"draft_ids,omitempty"`
	Strategy      string         `json:"strategy"` // priority/latest/combine
	PriorityOrder []string       `json:"priority_order,omitempty"`
	Save          *SaveDraft     `json:"save,omitempty"`
}

// SaveDraft 合并结果另存为新草稿
type SaveDraft struct {
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// MergeResponse 合并响应
type MergeResponse struct {
	*draft.MergeResult
	SavedDraft *model.Draft `json:"saved_draft,omitempty"`
}

// MergeDrafts 合并多个草稿
func (h *Handler) MergeDrafts(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	strategy, err := draft.ParseStrategy(req.Strategy)
	if err != nil {
		metrics.RecordDraftMerge(req.Strategy, false)
		respondError(w, err)
		return
	}

	var ve errors.ValidationErrors
	ids := parseIDs("draft_ids", req.DraftIDs, &ve)
	order := parseIDs("priority_order", req.PriorityOrder, &ve)
	var save *model.Draft
	if req.Save != nil {
		save = &model.Draft{
			BusinessID: parseBusinessID(req.Save.BusinessID, &ve),
			Name:       req.Save.Name,
			Status:     model.DraftEditing,
			StartDate:  req.Save.StartDate,
			EndDate:    req.Save.EndDate,
		}
		dateRange(req.Save.StartDate, req.Save.EndDate, &ve)
	}
	if ve.HasErrors() {
		respondError(w, ve.ToAppError())
		return
	}
	if (len(ids) > 0 || save != nil) && !h.requireStore(w) {
		return
	}

	drafts := req.Drafts
	for _, id := range ids {
		d, err := h.store.Drafts.GetByID(r.Context(), id)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "读取草稿失败"))
			return
		}
		if d == nil {
			respondError(w, errors.NotFound("草稿", id.String()))
			return
		}
		drafts = append(drafts, d)
	}

	res, err := draft.Merge(drafts, strategy, order)
	metrics.RecordDraftMerge(string(strategy), err == nil)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := MergeResponse{MergeResult: res}
	if save != nil {
		save.Items = copyItems(res.Items)
		if err := h.store.CreateDraft(r.Context(), save); err != nil {
			respondError(w, err)
			return
		}
		resp.SavedDraft = save
		logger.Info().
			Str("draft_id", save.ID.String()).
			Int("items", len(save.Items)).
			Msg("合并结果已保存为草稿")
	}
	respondJSON(w, http.StatusOK, resp)
}

// ActivateRequest 草稿激活请求，DraftID 对数据库中的草稿执行事务激活，Draft 仅做内存转换
type ActivateRequest struct {
	DraftID string       `json:"draft_id,omitempty"`
	Draft   *model.Draft `json:"draft,omitempty"`
}

// ActivateDraft 激活草稿
func (h *Handler) ActivateDraft(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	var (
		act *draft.Activation
		err error
	)
	switch {
	case req.DraftID != "":
		id, perr := uuid.Parse(req.DraftID)
		if perr != nil {
			respondError(w, errors.InvalidInput("draft_id", "无效的草稿ID格式"))
			return
		}
		if !h.requireStore(w) {
			return
		}
		act, err = h.store.ActivateDraft(r.Context(), id)
	case req.Draft != nil:
		act, err = draft.Activate(req.Draft)
	default:
		err = errors.InvalidInput("draft", "需要提供 draft_id 或 draft")
	}

	metrics.RecordDraftActivation(err == nil)
	if err != nil {
		respondError(w, err)
		return
	}
	metrics.RecordConflicts(act.Conflicts)
	respondJSON(w, http.StatusOK, act)
}

// copyItems 复制草稿项并清空 ID，避免与来源草稿的主键冲突
func copyItems(items []*model.DraftItem) []*model.DraftItem {
	out := make([]*model.DraftItem, 0, len(items))
	for _, it := range items {
		c := *it
		c.ID = uuid.Nil
		c.DraftID = uuid.Nil
		out = append(out, &c)
	}
	return out
}

func parseIDs(field string, in []string, ve *errors.ValidationErrors) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(in))
	for i, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			ve.AddCode(errors.CodeInvalidInput, fmt.Sprintf("%s[%d]", field, i), "无效的ID格式")
			continue
		}
		out = append(out, id)
	}
	return out
}
