package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

// DraftRepository 排班草稿仓储
type DraftRepository struct {
	db DB
}

// NewDraftRepository 创建草稿仓储
func NewDraftRepository(db DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Create 创建草稿及其全部草稿项
func (r *DraftRepository) Create(ctx context.Context, d *model.Draft) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now()
	d.CreatedAt, d.UpdatedAt = now, now
	if d.Status == "" {
		d.Status = model.DraftEditing
	}
	if d.Version == 0 {
		d.Version = 1
	}

	query := `
		INSERT INTO schedule_drafts (
			id, business_id, name, version, status, start_date, end_date, activated_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.BusinessID, d.Name, d.Version, d.Status, d.StartDate, d.EndDate, d.ActivatedAt, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("创建草稿失败: %w", err)
	}

	for _, it := range d.Items {
		it.DraftID = d.ID
		if err := r.AddItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

// AddItem 写入草稿项
func (r *DraftRepository) AddItem(ctx context.Context, it *model.DraftItem) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	now := time.Now()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = now
	}
	if it.Status == "" {
		it.Status = model.DraftItemPlanned
	}

	query := `
		INSERT INTO draft_items (
			id, draft_id, employee_id, date, start_time, end_time, shift_type, priority,
			break_minutes, status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		it.ID, it.DraftID, it.EmployeeID, it.Date, it.StartTime, it.EndTime, it.ShiftType, it.Priority,
		it.BreakMins, it.Status, it.Notes, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("创建草稿项失败: %w", err)
	}
	return nil
}

// GetByID 获取草稿及草稿项，不存在时返回 nil
func (r *DraftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Draft, error) {
	d := &model.Draft{}
	var activated sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, business_id, name, version, status, start_date, end_date, activated_at, created_at, updated_at
		FROM schedule_drafts WHERE id = $1`, id,
	).Scan(&d.ID, &d.BusinessID, &d.Name, &d.Version, &d.Status, &d.StartDate, &d.EndDate, &activated, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询草稿失败: %w", err)
	}
	if activated.Valid {
		t := activated.Time
		d.ActivatedAt = &t
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, draft_id, employee_id, date, start_time, end_time, shift_type, priority,
			break_minutes, status, notes, created_at, updated_at
		FROM draft_items WHERE draft_id = $1 ORDER BY date, start_time, employee_id`, id)
	if err != nil {
		return nil, fmt.Errorf("查询草稿项失败: %w", err)
	}
	defer rows.Close()

	d.Items = make([]*model.DraftItem, 0)
	for rows.Next() {
		it := &model.DraftItem{}
		if err := rows.Scan(
			&it.ID, &it.DraftID, &it.EmployeeID, &it.Date, &it.StartTime, &it.EndTime, &it.ShiftType, &it.Priority,
			&it.BreakMins, &it.Status, &it.Notes, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描草稿项失败: %w", err)
		}
		d.Items = append(d.Items, it)
	}
	return d, rows.Err()
}

// UpdateStatus 更新草稿状态与激活时间
func (r *DraftRepository) UpdateStatus(ctx context.Context, d *model.Draft) error {
	d.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, `UPDATE schedule_drafts SET status = $1, activated_at = $2, updated_at = $3 WHERE id = $4`,
		d.Status, d.ActivatedAt, d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("更新草稿状态失败: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("草稿不存在")
	}
	return nil
}

// ArchiveActive 归档商户下其他已激活的草稿
func (r *DraftRepository) ArchiveActive(ctx context.Context, businessID, except uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE schedule_drafts SET status = $1, updated_at = $2
		WHERE business_id = $3 AND status = $4 AND id <> $5`,
		model.DraftArchived, time.Now(), businessID, model.DraftActive, except)
	if err != nil {
		return fmt.Errorf("归档草稿失败: %w", err)
	}
	return nil
}
