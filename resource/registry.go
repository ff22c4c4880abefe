package resource

import (
	"context"
	"fmt"

	"github.com/aisgo/ais-edu/entity"

	"gorm.io/gorm"
)

// Registry 启动时显式注册的文档形态集合
// 由调用方持有并传递，不存在全局单例
type Registry struct {
	db       *gorm.DB
	opts     Options
	handlers map[string]Handler
	order    []string
	models   []any
}

// NewRegistry 创建注册表
func NewRegistry(db *gorm.DB, opts Options) *Registry {
	return &Registry{
		db:       db,
		opts:     opts.withDefaults(),
		handlers: make(map[string]Handler),
	}
}

// Register 注册一个文档形态并返回其控制器
func Register[T any, PT Shape[T]](r *Registry) (*Controller[T, PT], error) {
	ctrl := NewController[T, PT](r.db, r.opts)
	if _, exists := r.handlers[ctrl.Collection()]; exists {
		return nil, fmt.Errorf("collection %q already registered", ctrl.Collection())
	}
	r.handlers[ctrl.Collection()] = ctrl
	r.order = append(r.order, ctrl.Collection())
	r.models = append(r.models, PT(new(T)))
	return ctrl, nil
}

// RegisterAll 注册全部内置形态
func RegisterAll(r *Registry) error {
	regs := []func(*Registry) error{
		register[entity.User],
		register[entity.Route],
		register[entity.Card],
		register[entity.Lesson],
		register[entity.Exercise],
		register[entity.Attempt],
		register[entity.Report],
		register[entity.Review],
		register[entity.Media],
		register[entity.Plan],
		register[entity.TokensLedgerEntry],
		register[entity.AiRequest],
		register[entity.AiResponse],
		register[entity.RouteVersion],
		register[entity.AdminLog],
		register[entity.History],
	}
	for _, fn := range regs {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func register[T any, PT Shape[T]](r *Registry) error {
	_, err := Register[T, PT](r)
	return err
}

// Handler 按集合名查找
func (r *Registry) Handler(collection string) (Handler, bool) {
	h, ok := r.handlers[collection]
	return h, ok
}

// Handlers 按注册顺序返回全部控制器
func (r *Registry) Handlers() []Handler {
	out := make([]Handler, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.handlers[name])
	}
	return out
}

// Migrate 为全部已注册形态建表 / 补齐列与索引
func (r *Registry) Migrate(ctx context.Context) error {
	if len(r.models) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).AutoMigrate(r.models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
