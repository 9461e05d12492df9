package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

const entryColumns = `id, business_id, employee_id, date, start_time, end_time, shift_type, priority,
	break_minutes, status, is_auto_generated, notes, created_at, updated_at`

// entrySavepoint 事务内逐条写入使用的保存点
const entrySavepoint = "schedule_entry"

// ScheduleRepository 正式排班仓储，实现引擎的逐条写入接口
type ScheduleRepository struct {
	db        DB
	savepoint bool
}

// NewScheduleRepository 创建排班仓储
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// newTxScheduleRepository 事务内的排班仓储，每条写入包在保存点中
// postgres 中语句失败会使整个事务进入中止状态，回滚到保存点后事务可继续使用
func newTxScheduleRepository(tx DB) *ScheduleRepository {
	return &ScheduleRepository{db: tx, savepoint: true}
}

// CreateEntry 写入一条排班，事务内失败时只撤销这一条
func (r *ScheduleRepository) CreateEntry(ctx context.Context, e *model.ScheduleEntry) error {
	if !r.savepoint {
		return r.insertEntry(ctx, e)
	}
	if _, err := r.db.ExecContext(ctx, "SAVEPOINT "+entrySavepoint); err != nil {
		return fmt.Errorf("创建保存点失败: %w", err)
	}
	if err := r.insertEntry(ctx, e); err != nil {
		if _, rbErr := r.db.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+entrySavepoint); rbErr != nil {
			return fmt.Errorf("回滚保存点失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}
	if _, err := r.db.ExecContext(ctx, "RELEASE SAVEPOINT "+entrySavepoint); err != nil {
		return fmt.Errorf("释放保存点失败: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) insertEntry(ctx context.Context, e *model.ScheduleEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = model.EntryScheduled
	}

	query := `
		INSERT INTO schedule_entries (
			id, business_id, employee_id, date, start_time, end_time, shift_type, priority,
			break_minutes, status, is_auto_generated, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.BusinessID, e.EmployeeID, e.Date, e.StartTime, e.EndTime, e.ShiftType, e.Priority,
		e.BreakMinutes, e.Status, e.IsAutoGenerated, e.Notes, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建排班失败: %w", err)
	}
	return nil
}

// CreateEntries 批量写入，遇错即停
func (r *ScheduleRepository) CreateEntries(ctx context.Context, entries []*model.ScheduleEntry) error {
	for _, e := range entries {
		if err := r.CreateEntry(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// ListByRange 查询日期范围内的排班，包含已取消的记录
func (r *ScheduleRepository) ListByRange(ctx context.Context, businessID uuid.UUID, dr model.DateRange) ([]*model.ScheduleEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM schedule_entries
		WHERE business_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, start_time, employee_id`

	rows, err := r.db.QueryContext(ctx, query, businessID, dr.StartDate, dr.EndDate)
	if err != nil {
		return nil, fmt.Errorf("查询排班失败: %w", err)
	}
	defer rows.Close()

	entries := make([]*model.ScheduleEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CancelRange 取消日期范围内的有效排班，返回取消条数
func (r *ScheduleRepository) CancelRange(ctx context.Context, businessID uuid.UUID, dr model.DateRange) (int64, error) {
	query := `
		UPDATE schedule_entries SET status = $1, updated_at = $2
		WHERE business_id = $3 AND date >= $4 AND date <= $5 AND status <> $6
	`
	result, err := r.db.ExecContext(ctx, query,
		model.EntryCancelled, time.Now(), businessID, dr.StartDate, dr.EndDate, model.EntryCancelled)
	if err != nil {
		return 0, fmt.Errorf("取消排班失败: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// UpdateStatus 更新单条排班状态
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.EntryStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE schedule_entries SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("更新排班状态失败: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("排班不存在")
	}
	return nil
}

func scanEntry(s Scanner) (*model.ScheduleEntry, error) {
	e := &model.ScheduleEntry{}
	err := s.Scan(
		&e.ID, &e.BusinessID, &e.EmployeeID, &e.Date, &e.StartTime, &e.EndTime, &e.ShiftType, &e.Priority,
		&e.BreakMinutes, &e.Status, &e.IsAutoGenerated, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描排班数据失败: %w", err)
	}
	return e, nil
}
