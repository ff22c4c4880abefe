package repository

import (
	"context"
	stderrors "errors"

	"github.com/aisgo/ais-edu/errors"

	"gorm.io/gorm"
)

/* ========================================================================
 * CRUD Repository Implementation - 写操作实现
 * ========================================================================
 * 职责: 实现 WriteRepository 接口
 *
 * 使用示例:
 *   type Card struct {
 *       repository.BaseModel
 *       RouteID string `gorm:"column:route_id;type:varchar(26);index"`
 *       Title   string `gorm:"column:title"`
 *   }
 *
 *   repo := repository.NewRepository[Card](db)
 *   card := &Card{RouteID: routeID, Title: "Intro"}
 *   err := repo.Create(ctx, card)
 *
 *   card.Title = "Intro (v2)"
 *   err = repo.Update(ctx, card, repository.ColumnCreatedAt)
 *
 *   err = repo.SoftDelete(ctx, card.ID, &actorID)
 * ======================================================================== */

// RepositoryImpl 仓储实现
type RepositoryImpl[T any] struct {
	db *gorm.DB
}

var _ Repository[BaseModel] = (*RepositoryImpl[BaseModel])(nil)

// NewRepository 创建新的仓储实例
func NewRepository[T any](db *gorm.DB) *RepositoryImpl[T] {
	return &RepositoryImpl[T]{db: db}
}

// newModelPtr 创建新的模型指针
func (r *RepositoryImpl[T]) newModelPtr() *T {
	var model T
	return &model
}

// withContext 返回带 context 的 DB (自动识别事务)
func (r *RepositoryImpl[T]) withContext(ctx context.Context) *gorm.DB {
	return getDBFromContext(ctx, r.db)
}

// translateError 将 GORM 错误转换为业务错误
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsBizError(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, "record not found", err)
	case stderrors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(errors.ErrCodeInvalidArgument, "duplicate value violates a unique field", err)
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return errors.Wrap(errors.ErrCodeTimeout, op+" timed out", err)
	}
	return errors.Wrap(errors.ErrCodeInternal, "failed to "+op, err)
}

/* ========================================================================
 * Create 操作
 * ======================================================================== */

// Create 创建单条记录
func (r *RepositoryImpl[T]) Create(ctx context.Context, model *T) error {
	if model == nil {
		return errors.ErrInvalidArgument
	}
	return translateError(r.withContext(ctx).Create(model).Error, "create record")
}

/* ========================================================================
 * Update 操作
 * ======================================================================== */

// Update 按主键整行更新（包含零值字段）
// 不使用 Save：Save 在主键不存在时会插入新行
// 软删除插件为 UPDATE 附带 deleted = 0，已删除记录影响行数为 0
func (r *RepositoryImpl[T]) Update(ctx context.Context, model *T, omit ...string) error {
	if model == nil {
		return errors.ErrInvalidArgument
	}

	omitted := append([]string{ColumnID, ColumnDeleted, ColumnDeletedAt, ColumnDeletedBy}, omit...)
	result := r.withContext(ctx).Model(model).Select("*").Omit(omitted...).Updates(model)
	if result.Error != nil {
		return translateError(result.Error, "update record")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "record not found")
	}
	return nil
}

/* ========================================================================
 * Delete 操作
 * ======================================================================== */

// SoftDelete 软删除记录：deleted=1, deleted_at=now, deleted_by=操作人
// 仅对未删除记录生效，deleted_at 因此只会被写入一次；其余列（含 updated_at）保持不变
func (r *RepositoryImpl[T]) SoftDelete(ctx context.Context, id string, deletedBy *string) error {
	db := r.withContext(ctx)
	updates := map[string]any{
		ColumnDeleted:   1,
		ColumnDeletedAt: db.NowFunc(),
		ColumnDeletedBy: deletedBy,
	}

	result := db.Model(r.newModelPtr()).Where(ColumnID+" = ?", id).UpdateColumns(updates)
	if result.Error != nil {
		return translateError(result.Error, "delete record")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "record not found")
	}
	return nil
}
