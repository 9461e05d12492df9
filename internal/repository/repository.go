// Package repository 提供数据访问层
//
// SQL 统一使用 $n 占位符，且同一语句内按出现顺序编号，
// sqlite3 驱动按位置绑定参数，postgres 与 sqlite3 共用同一套语句。
package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

// Repository 通用仓储接口
type Repository[T any] interface {
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]*T, int, error)
}

// ListFilter 列表查询过滤器
type ListFilter struct {
	BusinessID *uuid.UUID `json:"business_id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Search     string     `json:"search,omitempty"`
	Offset     int        `json:"offset"`
	Limit      int        `json:"limit"`
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter() ListFilter {
	return ListFilter{Offset: 0, Limit: 20}
}

// WithLimit 设置限制
func (f ListFilter) WithLimit(limit int) ListFilter {
	f.Limit = limit
	return f
}

// WithOffset 设置偏移
func (f ListFilter) WithOffset(offset int) ListFilter {
	f.Offset = offset
	return f
}

// WithBusinessID 设置商户ID
func (f ListFilter) WithBusinessID(id uuid.UUID) ListFilter {
	f.BusinessID = &id
	return f
}

// WithStatus 设置状态过滤
func (f ListFilter) WithStatus(status string) ListFilter {
	f.Status = status
	return f
}

// DB 数据库接口，*database.DB 与 *sql.Tx 均满足
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Transactor 可开启事务的连接
type Transactor interface {
	DB
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Scanner 行扫描接口，*sql.Row 与 *sql.Rows 均满足
type Scanner interface {
	Scan(dest ...interface{}) error
}

// jsonText 序列化为文本，nil 存为 NULL
func jsonText(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}

// fromJSON 反序列化可为空的 JSON 列
func fromJSON(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
