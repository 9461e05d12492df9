package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/draft"
	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/logger"
	"github.com/paiban/staffplan/pkg/model"
)

// Store 汇总各仓储，提供跨表操作
type Store struct {
	db        Transactor
	Employees *EmployeeRepository
	Chemistry *ChemistryRepository
	Templates *TemplateRepository
	Leaves    *LeaveRepository
	Schedule  *ScheduleRepository
	Drafts    *DraftRepository
}

// NewStore 创建仓储集合
func NewStore(db Transactor) *Store {
	return &Store{
		db:        db,
		Employees: NewEmployeeRepository(db),
		Chemistry: NewChemistryRepository(db),
		Templates: NewTemplateRepository(db),
		Leaves:    NewLeaveRepository(db),
		Schedule:  NewScheduleRepository(db),
		Drafts:    NewDraftRepository(db),
	}
}

// Snapshot 生成排班所需的只读数据
type Snapshot struct {
	Template  *model.OperatingHoursTemplate
	Employees []*model.Employee
	Leaves    []*model.LeaveRequest
	Chemistry []model.ChemistryEdge
	Existing  []*model.ScheduleEntry // 含回看窗口内的排班
}

// LoadSnapshot 读取商户在日期范围内的排班输入
// 已有排班额外向前回看 lookbackDays 天及开始日期所在 ISO 周，供休息、周工时和连续天数校验
func (s *Store) LoadSnapshot(ctx context.Context, businessID uuid.UUID, dr model.DateRange, lookbackDays int) (*Snapshot, error) {
	tpl, err := s.Templates.GetByBusiness(ctx, businessID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "读取营业时间模板失败")
	}
	if tpl == nil {
		return nil, errors.NotFound("营业时间模板", businessID.String())
	}

	snap := &Snapshot{Template: tpl}
	if snap.Employees, err = s.Employees.ListByBusiness(ctx, businessID); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "读取员工失败")
	}
	if snap.Leaves, err = s.Leaves.ListOverlapping(ctx, businessID, dr); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "读取请假记录失败")
	}
	if snap.Chemistry, err = s.Chemistry.ListByBusiness(ctx, businessID); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "读取配合度失败")
	}
	if snap.Existing, err = s.Schedule.ListByRange(ctx, businessID, dr.WithLookback(lookbackDays)); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "读取已有排班失败")
	}

	logger.Debug().
		Str("business_id", businessID.String()).
		Int("employees", len(snap.Employees)).
		Int("leaves", len(snap.Leaves)).
		Int("existing", len(snap.Existing)).
		Msg("加载排班快照")
	return snap, nil
}

// ScheduleTx 在一个事务内操作正式排班，fn 返回错误时整体回滚
// 单条 CreateEntry 失败只撤销该条，事务仍可继续写入和提交
func (s *Store) ScheduleTx(ctx context.Context, fn func(schedule *ScheduleRepository) error) error {
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		return fn(newTxScheduleRepository(tx))
	})
	if err != nil && errors.GetCode(err) == errors.CodeUnknown {
		return errors.Wrap(err, errors.CodeDatabaseError, "排班事务失败")
	}
	return err
}

// ActivateDraft 在一个事务内激活草稿：取消草稿日期范围内的原有排班，写入草稿排班，归档其他已激活草稿
func (s *Store) ActivateDraft(ctx context.Context, draftID uuid.UUID) (*draft.Activation, error) {
	var act *draft.Activation
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		drafts := NewDraftRepository(tx)
		schedule := NewScheduleRepository(tx)

		d, err := drafts.GetByID(ctx, draftID)
		if err != nil {
			return err
		}
		if d == nil {
			return errors.NotFound("草稿", draftID.String())
		}

		if act, err = draft.Activate(d); err != nil {
			return err
		}

		dr := model.DateRange{StartDate: d.StartDate, EndDate: d.EndDate}
		cancelled, err := schedule.CancelRange(ctx, d.BusinessID, dr)
		if err != nil {
			return err
		}
		if err := schedule.CreateEntries(ctx, act.Entries); err != nil {
			return err
		}
		if err := drafts.UpdateStatus(ctx, d); err != nil {
			return err
		}
		if err := drafts.ArchiveActive(ctx, d.BusinessID, d.ID); err != nil {
			return err
		}

		logger.Info().
			Str("draft_id", d.ID.String()).
			Int("entries", len(act.Entries)).
			Int("excluded", act.Excluded).
			Int64("cancelled", cancelled).
			Msg("草稿已激活")
		return nil
	})
	if err != nil {
		if errors.GetCode(err) != errors.CodeUnknown {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.CodeDatabaseError, fmt.Sprintf("激活草稿 %s 失败", draftID))
	}
	return act, nil
}

// CreateDraft 在一个事务内写入草稿及草稿项
func (s *Store) CreateDraft(ctx context.Context, d *model.Draft) error {
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		return NewDraftRepository(tx).Create(ctx, d)
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "保存草稿失败")
	}
	return nil
}
