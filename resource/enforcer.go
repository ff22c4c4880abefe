package resource

import (
	"context"
	"fmt"

	"github.com/aisgo/ais-edu/errors"
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/utils/id-generator/ulid"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Enforcer 软删除不变量
// 不存在、已删除、格式错误的 ID 统一返回 NotFound，三者对调用方不可区分
type Enforcer[T any, PT Shape[T]] struct {
	repo  repository.RawFinder[T]
	model string
}

// NewEnforcer 创建 Enforcer
func NewEnforcer[T any, PT Shape[T]](repo repository.RawFinder[T]) *Enforcer[T, PT] {
	return &Enforcer[T, PT]{repo: repo, model: PT(new(T)).ModelName()}
}

// Live 原始查找后校验删除标记，返回未删除的文档
func (e *Enforcer[T, PT]) Live(ctx context.Context, id string) (PT, error) {
	if !ulid.IsValid(id) {
		return nil, e.notFound()
	}

	doc, err := e.repo.FindByIDUnscoped(ctx, ulid.Normalize(id))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, e.notFound()
		}
		return nil, err
	}

	pt := PT(doc)
	if pt.Base().IsDeleted() {
		return nil, e.notFound()
	}
	return pt, nil
}

func (e *Enforcer[T, PT]) notFound() error {
	return errors.NotFound(fmt.Sprintf("%s not found", e.model))
}

// LiveScope 列表查询的强制条件 deleted = 0
// 显式加入而不依赖插件，客户端条件只能与之合取
func LiveScope(db *gorm.DB) *gorm.DB {
	return db.Where(clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: repository.ColumnDeleted},
		Value:  0,
	})
}
