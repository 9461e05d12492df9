package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

// LeaveRepository 请假仓储
type LeaveRepository struct {
	db DB
}

// NewLeaveRepository 创建请假仓储
func NewLeaveRepository(db DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create 创建请假记录
func (r *LeaveRepository) Create(ctx context.Context, l *model.LeaveRequest) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.EndDate < l.StartDate {
		return fmt.Errorf("请假结束日期 %s 早于开始日期 %s", l.EndDate, l.StartDate)
	}

	query := `
		INSERT INTO leave_requests (id, employee_id, start_date, end_date, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query, l.ID, l.EmployeeID, l.StartDate, l.EndDate, l.Status, l.Reason); err != nil {
		return fmt.Errorf("创建请假记录失败: %w", err)
	}
	return nil
}

// UpdateStatus 审批请假
func (r *LeaveRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.LeaveStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE leave_requests SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("更新请假状态失败: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("请假记录不存在")
	}
	return nil
}

// ListOverlapping 商户员工与日期范围有交集的请假，包含全部状态
func (r *LeaveRepository) ListOverlapping(ctx context.Context, businessID uuid.UUID, dr model.DateRange) ([]*model.LeaveRequest, error) {
	query := `
		SELECT l.id, l.employee_id, l.start_date, l.end_date, l.status, l.reason
		FROM leave_requests l
		JOIN employees e ON e.id = l.employee_id
		WHERE e.business_id = $1 AND l.start_date <= $2 AND l.end_date >= $3
		ORDER BY l.start_date, l.id
	`
	rows, err := r.db.QueryContext(ctx, query, businessID, dr.EndDate, dr.StartDate)
	if err != nil {
		return nil, fmt.Errorf("查询请假记录失败: %w", err)
	}
	defer rows.Close()

	leaves := make([]*model.LeaveRequest, 0)
	for rows.Next() {
		l := &model.LeaveRequest{}
		if err := rows.Scan(&l.ID, &l.EmployeeID, &l.StartDate, &l.EndDate, &l.Status, &l.Reason); err != nil {
			return nil, fmt.Errorf("扫描请假记录失败: %w", err)
		}
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}
