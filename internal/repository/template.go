package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

// TemplateRepository 营业时间模板仓储，每个商户一份模板
type TemplateRepository struct {
	db DB
}

// NewTemplateRepository 创建模板仓储
func NewTemplateRepository(db DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Save 保存模板及其例外设置，商户已有模板时覆盖
func (r *TemplateRepository) Save(ctx context.Context, tpl *model.OperatingHoursTemplate) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	days, err := jsonText(tpl.Days)
	if err != nil {
		return fmt.Errorf("序列化营业时间失败: %w", err)
	}

	var existing uuid.UUID
	err = r.db.QueryRowContext(ctx, `SELECT id FROM operating_templates WHERE business_id = $1`, tpl.BusinessID).Scan(&existing)
	now := time.Now()
	switch {
	case err == sql.ErrNoRows:
		if tpl.ID == uuid.Nil {
			tpl.ID = uuid.New()
		}
		tpl.CreatedAt, tpl.UpdatedAt = now, now
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO operating_templates (id, business_id, name, days, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			tpl.ID, tpl.BusinessID, tpl.Name, days, tpl.CreatedAt, tpl.UpdatedAt)
	case err != nil:
		return fmt.Errorf("查询模板失败: %w", err)
	default:
		tpl.ID = existing
		tpl.UpdatedAt = now
		_, err = r.db.ExecContext(ctx, `UPDATE operating_templates SET name = $1, days = $2, updated_at = $3 WHERE id = $4`,
			tpl.Name, days, tpl.UpdatedAt, tpl.ID)
	}
	if err != nil {
		return fmt.Errorf("保存模板失败: %w", err)
	}

	dates := make([]string, 0, len(tpl.Overrides))
	for d := range tpl.Overrides {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		if err := r.SaveOverride(ctx, tpl.ID, tpl.Overrides[d]); err != nil {
			return err
		}
	}
	return nil
}

// SaveOverride 写入特定日期的例外设置，同一日期覆盖旧值
func (r *TemplateRepository) SaveOverride(ctx context.Context, templateID uuid.UUID, o *model.ScheduleOverride) error {
	if _, err := model.ParseDate(o.Date); err != nil {
		return fmt.Errorf("例外日期无效: %w", err)
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.TemplateID = templateID
	slots, err := jsonText(o.HourlySlots)
	if err != nil {
		return fmt.Errorf("序列化时段规则失败: %w", err)
	}

	query := `
		INSERT INTO schedule_overrides (
			id, template_id, date, is_active, is_closed, reason,
			open_time, close_time, min_staff, max_staff, hourly_slots
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (template_id, date) DO UPDATE SET
			is_active = excluded.is_active, is_closed = excluded.is_closed, reason = excluded.reason,
			open_time = excluded.open_time, close_time = excluded.close_time,
			min_staff = excluded.min_staff, max_staff = excluded.max_staff, hourly_slots = excluded.hourly_slots
	`
	_, err = r.db.ExecContext(ctx, query,
		o.ID, o.TemplateID, o.Date, o.IsActive, o.IsClosed, o.Reason,
		o.OpenTime, o.CloseTime, o.MinStaff, o.MaxStaff, slots,
	)
	if err != nil {
		return fmt.Errorf("保存例外设置失败: %w", err)
	}
	return nil
}

// GetByBusiness 获取商户模板及全部例外设置，不存在时返回 nil
func (r *TemplateRepository) GetByBusiness(ctx context.Context, businessID uuid.UUID) (*model.OperatingHoursTemplate, error) {
	tpl := &model.OperatingHoursTemplate{Overrides: make(map[string]*model.ScheduleOverride)}
	var days []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, business_id, name, days, created_at, updated_at
		FROM operating_templates WHERE business_id = $1`, businessID,
	).Scan(&tpl.ID, &tpl.BusinessID, &tpl.Name, &days, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询模板失败: %w", err)
	}
	if err := fromJSON(days, &tpl.Days); err != nil {
		return nil, fmt.Errorf("解析营业时间失败: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, template_id, date, is_active, is_closed, reason,
			open_time, close_time, min_staff, max_staff, hourly_slots
		FROM schedule_overrides WHERE template_id = $1 ORDER BY date`, tpl.ID)
	if err != nil {
		return nil, fmt.Errorf("查询例外设置失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o := &model.ScheduleOverride{}
		var slots []byte
		if err := rows.Scan(
			&o.ID, &o.TemplateID, &o.Date, &o.IsActive, &o.IsClosed, &o.Reason,
			&o.OpenTime, &o.CloseTime, &o.MinStaff, &o.MaxStaff, &slots,
		); err != nil {
			return nil, fmt.Errorf("扫描例外设置失败: %w", err)
		}
		if err := fromJSON(slots, &o.HourlySlots); err != nil {
			return nil, fmt.Errorf("解析时段规则失败: %w", err)
		}
		tpl.Overrides[o.Date] = o
	}
	return tpl, rows.Err()
}
