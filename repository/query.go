package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* ========================================================================
 * Query Repository Implementation - 查询操作实现
 * ======================================================================== */

// buildQuery 构建查询
func (r *RepositoryImpl[T]) buildQuery(ctx context.Context, opts *QueryOption) *gorm.DB {
	db := r.withContext(ctx).Model(r.newModelPtr())
	if opts == nil {
		return db
	}

	for _, scope := range opts.Scopes {
		db = scope(db)
	}
	if len(opts.Order) > 0 {
		db = db.Order(clause.OrderBy{Columns: opts.Order})
	}
	return db
}

// FindByIDUnscoped 根据 ID 查找记录，忽略软删除标记
func (r *RepositoryImpl[T]) FindByIDUnscoped(ctx context.Context, id string) (*T, error) {
	model := r.newModelPtr()
	err := r.withContext(ctx).Unscoped().Where(ColumnID+" = ?", id).Take(model).Error
	if err != nil {
		return nil, translateError(err, "find record")
	}
	return model, nil
}

// Count 统计记录数（忽略排序）
func (r *RepositoryImpl[T]) Count(ctx context.Context, opts ...Option) (int64, error) {
	opt := ApplyOptions(opts)
	opt.Order = nil

	var count int64
	if err := r.buildQuery(ctx, opt).Count(&count).Error; err != nil {
		return 0, translateError(err, "count records")
	}
	return count, nil
}
