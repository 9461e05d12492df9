package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

const employeeColumns = `id, business_id, name, department, position, hire_date, status,
	ability, preference, constraints, created_at, updated_at`

// EmployeeRepository 员工仓储
type EmployeeRepository struct {
	db DB
}

var _ Repository[model.Employee] = (*EmployeeRepository)(nil)

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create 创建员工
func (r *EmployeeRepository) Create(ctx context.Context, emp *model.Employee) error {
	if emp.ID == uuid.Nil {
		emp.ID = uuid.New()
	}
	now := time.Now()
	emp.CreatedAt = now
	emp.UpdatedAt = now
	if emp.Status == "" {
		emp.Status = "active"
	}

	ability, prefs, cons, err := employeeJSON(emp)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO employees (
			id, business_id, name, department, position, hire_date, status,
			ability, preference, constraints, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.ExecContext(ctx, query,
		emp.ID, emp.BusinessID, emp.Name, emp.Department, emp.Position, emp.HireDate, emp.Status,
		ability, prefs, cons, emp.CreatedAt, emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建员工失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取员工，不存在时返回 nil
func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND deleted_at IS NULL`

	emp, err := scanEmployee(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return emp, err
}

// Update 更新员工
func (r *EmployeeRepository) Update(ctx context.Context, emp *model.Employee) error {
	emp.UpdatedAt = time.Now()

	ability, prefs, cons, err := employeeJSON(emp)
	if err != nil {
		return err
	}

	query := `
		UPDATE employees SET
			name = $1, department = $2, position = $3, hire_date = $4, status = $5,
			ability = $6, preference = $7, constraints = $8, updated_at = $9
		WHERE id = $10 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		emp.Name, emp.Department, emp.Position, emp.HireDate, emp.Status,
		ability, prefs, cons, emp.UpdatedAt, emp.ID,
	)
	if err != nil {
		return fmt.Errorf("更新员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("员工不存在")
	}
	return nil
}

// Delete 软删除员工
func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE employees SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("删除员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("员工不存在")
	}
	return nil
}

// List 查询员工列表
func (r *EmployeeRepository) List(ctx context.Context, filter ListFilter) ([]*model.Employee, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.BusinessID != nil {
		conditions = append(conditions, fmt.Sprintf("business_id = $%d", argIndex))
		args = append(args, *filter.BusinessID)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name LIKE $%d OR department LIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE %s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		employeeColumns, whereClause, argIndex, argIndex+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	employees, err := collectEmployees(rows)
	if err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

// ListByBusiness 获取商户下全部员工（含离职），引擎自行过滤
func (r *EmployeeRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*model.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
		WHERE business_id = $1 AND deleted_at IS NULL ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("查询员工失败: %w", err)
	}
	defer rows.Close()
	return collectEmployees(rows)
}

func employeeJSON(emp *model.Employee) (ability, prefs, cons interface{}, err error) {
	if ability, err = jsonText(emp.Ability); err != nil {
		return nil, nil, nil, fmt.Errorf("序列化能力评分失败: %w", err)
	}
	if prefs, err = jsonText(emp.Preference); err != nil {
		return nil, nil, nil, fmt.Errorf("序列化工作偏好失败: %w", err)
	}
	if cons, err = jsonText(emp.Constraints); err != nil {
		return nil, nil, nil, fmt.Errorf("序列化个人约束失败: %w", err)
	}
	return ability, prefs, cons, nil
}

func collectEmployees(rows *sql.Rows) ([]*model.Employee, error) {
	employees := make([]*model.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历员工数据失败: %w", err)
	}
	return employees, nil
}

// scanEmployee 扫描员工数据，未找到时原样返回 sql.ErrNoRows
func scanEmployee(s Scanner) (*model.Employee, error) {
	emp := &model.Employee{}
	var abilityJSON, prefsJSON, consJSON []byte

	err := s.Scan(
		&emp.ID, &emp.BusinessID, &emp.Name, &emp.Department, &emp.Position, &emp.HireDate, &emp.Status,
		&abilityJSON, &prefsJSON, &consJSON, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描员工数据失败: %w", err)
	}

	if err := fromJSON(abilityJSON, &emp.Ability); err != nil {
		return nil, fmt.Errorf("解析能力评分失败: %w", err)
	}
	if err := fromJSON(prefsJSON, &emp.Preference); err != nil {
		return nil, fmt.Errorf("解析工作偏好失败: %w", err)
	}
	if err := fromJSON(consJSON, &emp.Constraints); err != nil {
		return nil, fmt.Errorf("解析个人约束失败: %w", err)
	}
	return emp, nil
}
