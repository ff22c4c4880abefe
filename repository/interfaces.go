package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* ========================================================================
 * Repository Interfaces - 仓储接口定义
 * ========================================================================
 * 职责: 定义文档仓储接口
 * 设计: 使用泛型提供类型安全的数据访问；主键为 ULID 字符串
 *       默认查询自动附带 deleted = 0，Unscoped 系列方法用于原始查找
 * ======================================================================== */

// QueryOption 查询选项
type QueryOption struct {
	// Scopes 查询作用域（过滤条件等）
	Scopes []func(*gorm.DB) *gorm.DB
	// Order 结构化排序，列名由方言负责转义
	Order []clause.OrderByColumn
}

// Option 应用查询选项
type Option func(*QueryOption)

// WithScopes 追加查询作用域
func WithScopes(scopes ...func(*gorm.DB) *gorm.DB) Option {
	return func(o *QueryOption) {
		o.Scopes = append(o.Scopes, scopes...)
	}
}

// WithOrder 设置结构化排序，列名未通过校验时整体忽略
func WithOrder(columns ...clause.OrderByColumn) Option {
	return func(o *QueryOption) {
		for _, c := range columns {
			if ValidateColumn(c.Column.Name) != nil {
				return
			}
		}
		o.Order = columns
	}
}

// ApplyOptions 应用查询选项
func ApplyOptions(opts []Option) *QueryOption {
	o := &QueryOption{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PageResult 分页结果
type PageResult[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Pages    int64 `json:"pages"`
}

// WriteRepository 写操作接口
type WriteRepository[T any] interface {
	// Create 创建单条记录，ID 为空时自动生成
	Create(ctx context.Context, model *T) error

	// Update 按主键整行更新未删除的记录
	// omit 为不允许覆盖的列（如 created_at）；记录不存在或已删除时返回 NotFound
	Update(ctx context.Context, model *T, omit ...string) error

	// SoftDelete 将记录标记为已删除并记录删除时间与操作人
	SoftDelete(ctx context.Context, id string, deletedBy *string) error
}

// RawFinder 原始查找，不附带删除条件
type RawFinder[T any] interface {
	FindByIDUnscoped(ctx context.Context, id string) (*T, error)
}

// PageRepository 分页查询接口
type PageRepository[T any] interface {
	// Count 统计未删除记录数
	Count(ctx context.Context, opts ...Option) (int64, error)

	// FindPage 分页查询
	FindPage(ctx context.Context, page, pageSize int, opts ...Option) (*PageResult[T], error)
}

// TransactionRepository 事务支持接口
type TransactionRepository[T any] interface {
	// Transaction 在事务中执行操作，txCtx 内的仓储调用自动复用事务
	Transaction(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Repository 文档仓储接口
type Repository[T any] interface {
	WriteRepository[T]
	RawFinder[T]
	PageRepository[T]
	TransactionRepository[T]
}
