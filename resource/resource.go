package resource

import (
	"context"

	"github.com/aisgo/ais-edu/entity"
	"github.com/aisgo/ais-edu/utils/id-generator/ulid"
)

/* ========================================================================
 * Resource - 通用资源控制器
 * ========================================================================
 * 职责: 以文档形态为参数提供 create / list / getOne / update / softDelete
 * 组成:
 *   Enforcer   软删除不变量：已删除文档对外表现为不存在
 *   Guard      批量赋值防护：更新时剔除受保护字段
 *   Filter     查询条件构造：标识符精确匹配，其余不区分大小写的子串匹配
 *   Paginator  分页与排序：固定降序
 *   Controller 组合以上组件，边界处统一转换为响应信封
 * ======================================================================== */

// Actor 请求的操作人，ID 为 User 文档的 ULID
type Actor struct {
	ID   string
	Role string
}

// Ref 返回规范化后的操作人 ID；匿名或 ID 非 ULID 时为 nil
func (a *Actor) Ref() *string {
	if a == nil || !ulid.IsValid(a.ID) {
		return nil
	}
	id := ulid.Normalize(a.ID)
	return &id
}

// Shape 文档形态约束：*T 实现 entity.Entity
type Shape[T any] interface {
	*T
	entity.Entity
}

// Mutation 一次成功的变更事件
type Mutation struct {
	Collection string
	ModelName  string
	DocumentID string
	Operation  string
	Actor      *Actor
	Before     map[string]any
	After      map[string]any
}

// MutationSink 变更事件接收方（审计记录等）
// Record 不返回错误：记录失败不影响操作结果
type MutationSink interface {
	Record(ctx context.Context, m Mutation)
}

// MutationSinkFunc 函数适配器
type MutationSinkFunc func(ctx context.Context, m Mutation)

func (f MutationSinkFunc) Record(ctx context.Context, m Mutation) { f(ctx, m) }

type nopSink struct{}

func (nopSink) Record(context.Context, Mutation) {}
