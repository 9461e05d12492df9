package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

// ChemistryRepository 员工配合度仓储，每对员工一条记录
type ChemistryRepository struct {
	db DB
}

// NewChemistryRepository 创建配合度仓储
func NewChemistryRepository(db DB) *ChemistryRepository {
	return &ChemistryRepository{db: db}
}

// Upsert 写入配合度，员工对按规范顺序存储
func (r *ChemistryRepository) Upsert(ctx context.Context, businessID uuid.UUID, edge model.ChemistryEdge) error {
	edge = model.NewChemistryEdge(edge.EmployeeA, edge.EmployeeB, edge.Score)
	if err := edge.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO employee_chemistry (business_id, employee_a, employee_b, score, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_a, employee_b) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, businessID, edge.EmployeeA, edge.EmployeeB, edge.Score, time.Now()); err != nil {
		return fmt.Errorf("保存配合度失败: %w", err)
	}
	return nil
}

// ListByBusiness 获取商户下全部配合度
func (r *ChemistryRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.ChemistryEdge, error) {
	query := `SELECT employee_a, employee_b, score FROM employee_chemistry WHERE business_id = $1 ORDER BY employee_a, employee_b`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("查询配合度失败: %w", err)
	}
	defer rows.Close()

	edges := make([]model.ChemistryEdge, 0)
	for rows.Next() {
		var e model.ChemistryEdge
		if err := rows.Scan(&e.EmployeeA, &e.EmployeeB, &e.Score); err != nil {
			return nil, fmt.Errorf("扫描配合度失败: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
