package repository

import (
	"context"
	"math"
)

/* ========================================================================
 * Page Repository Implementation - 分页查询实现
 * ========================================================================
 * 职责: 实现 PageRepository 接口
 * 注意: 入参应已由调用方校验；此处只做兜底修正
 * ======================================================================== */

// MaxPageSize 单页记录上限
const MaxPageSize = 1000

// FindPage 分页查询
func (r *RepositoryImpl[T]) FindPage(ctx context.Context, page, pageSize int, opts ...Option) (*PageResult[T], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := r.Count(ctx, opts...)
	if err != nil {
		return nil, err
	}

	list := make([]T, 0, pageSize)
	offset := (page - 1) * pageSize
	if int64(offset) < total {
		query := r.buildQuery(ctx, ApplyOptions(opts))
		if err := query.Offset(offset).Limit(pageSize).Find(&list).Error; err != nil {
			return nil, translateError(err, "find records")
		}
	}

	return &PageResult[T]{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    int64(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}
