package repository

import (
	"context"

	"github.com/aisgo/ais-edu/errors"

	"gorm.io/gorm"
)

/* ========================================================================
 * Transaction Repository Implementation - 事务支持实现
 * ======================================================================== */

// Transaction 在事务中执行操作
// 如果 fn 返回错误，事务将回滚；否则提交。BizError 原样返回
func (r *RepositoryImpl[T]) Transaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	db := r.withContext(ctx)

	err := db.Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTx(ctx, tx))
	})
	if err == nil {
		return nil
	}
	if _, ok := errors.AsBizError(err); ok {
		return err
	}
	return errors.Wrap(errors.ErrCodeInternal, "transaction failed", err)
}
