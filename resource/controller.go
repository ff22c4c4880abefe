package resource

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"time"

	"github.com/aisgo/ais-edu/entity"
	"github.com/aisgo/ais-edu/errors"
	"github.com/aisgo/ais-edu/logger"
	"github.com/aisgo/ais-edu/metrics"
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/response"
	"github.com/aisgo/ais-edu/utils/id-generator/ulid"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultTimeout 单次操作默认时限
const DefaultTimeout = 5 * time.Second

// Options 控制器选项
type Options struct {
	Timeout   time.Duration
	Paginator Paginator
	Guard     *Guard
	Sink      MutationSink
	Logger    *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Guard == nil {
		o.Guard = NewGuard()
	}
	if o.Sink == nil {
		o.Sink = nopSink{}
	}
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	o.Paginator = o.Paginator.withDefaults()
	return o
}

// Handler 与文档形态无关的操作集，供路由层按集合分发
// 每个操作在边界处将错误转换为响应信封
type Handler interface {
	Collection() string
	ModelName() string
	Immutable() bool
	Create(ctx context.Context, actor *Actor, body []byte) response.Reply
	List(ctx context.Context, query map[string]string) response.Reply
	GetOne(ctx context.Context, id string) response.Reply
	Update(ctx context.Context, actor *Actor, id string, body []byte) response.Reply
	SoftDelete(ctx context.Context, actor *Actor, id string) response.Reply
}

// Controller 某一文档形态的通用操作集
type Controller[T any, PT Shape[T]] struct {
	collection string
	model      string
	immutable  bool
	db         *gorm.DB
	repo       repository.Repository[T]
	enforcer   *Enforcer[T, PT]
	fields     []entity.Field
	declared   []entity.Field
	opts       Options
}

var _ Handler = (*Controller[entity.Route, *entity.Route])(nil)

// NewController 创建控制器
func NewController[T any, PT Shape[T]](db *gorm.DB, opts Options) *Controller[T, PT] {
	proto := PT(new(T))
	_, immutable := any(proto).(entity.Immutable)
	repo := repository.NewRepository[T](db)

	return &Controller[T, PT]{
		collection: proto.TableName(),
		model:      proto.ModelName(),
		immutable:  immutable,
		db:         db,
		repo:       repo,
		enforcer:   NewEnforcer[T, PT](repo),
		fields:     entity.FieldsOf(proto),
		declared:   proto.DeclaredFields(),
		opts:       opts.withDefaults(),
	}
}

func (c *Controller[T, PT]) Collection() string { return c.collection }

func (c *Controller[T, PT]) ModelName() string { return c.model }

func (c *Controller[T, PT]) Immutable() bool { return c.immutable }

/* ========================================================================
 * 对外操作（边界：错误 -> 信封）
 * ======================================================================== */

// Create 创建文档；形态声明 authorId 且存在操作人时由操作人填充
func (c *Controller[T, PT]) Create(ctx context.Context, actor *Actor, body []byte) response.Reply {
	ctx, done := c.begin(ctx, "create")
	doc, err := c.create(ctx, actor, body)
	if err != nil {
		return done(err)
	}
	data, err := doc.Serialize()
	if err != nil {
		return done(errors.Internal(err))
	}
	done(nil)
	return response.Created(fmt.Sprintf("%s created successfully", c.model), data)
}

// List 过滤 + 分页，空结果不是错误
func (c *Controller[T, PT]) List(ctx context.Context, query map[string]string) response.Reply {
	ctx, done := c.begin(ctx, "list")
	page, err := c.list(ctx, query)
	if err != nil {
		return done(err)
	}
	done(nil)
	return response.List(page)
}

// GetOne 读取未删除的文档
func (c *Controller[T, PT]) GetOne(ctx context.Context, id string) response.Reply {
	ctx, done := c.begin(ctx, "getOne")
	doc, err := c.enforcer.Live(ctx, id)
	if err != nil {
		return done(err)
	}
	data, err := doc.Serialize()
	if err != nil {
		return done(errors.Internal(err))
	}
	done(nil)
	return response.OK(data)
}

// Update 浅合并更新；受保护字段被忽略
func (c *Controller[T, PT]) Update(ctx context.Context, actor *Actor, id string, body []byte) response.Reply {
	ctx, done := c.begin(ctx, "update")
	doc, err := c.update(ctx, actor, id, body)
	if err != nil {
		return done(err)
	}
	data, err := doc.Serialize()
	if err != nil {
		return done(errors.Internal(err))
	}
	done(nil)
	return response.OKWithMsg(fmt.Sprintf("%s updated successfully", c.model), data)
}

// SoftDelete 标记删除；重复删除返回 NotFound
func (c *Controller[T, PT]) SoftDelete(ctx context.Context, actor *Actor, id string) response.Reply {
	ctx, done := c.begin(ctx, "softDelete")
	if err := c.softDelete(ctx, actor, id); err != nil {
		return done(err)
	}
	done(nil)
	return response.OKWithMsg(fmt.Sprintf("%s successfully deleted", c.model), nil)
}

// begin 施加时限并返回结束回调：记录指标、日志并将错误转换为信封
func (c *Controller[T, PT]) begin(ctx context.Context, op string) (context.Context, func(error) response.Reply) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)

	return ctx, func(err error) response.Reply {
		defer cancel()
		err = c.classify(err)
		metrics.ObserveOperation(c.collection, op, outcome(err), time.Since(start))
		if err == nil {
			return response.Reply{}
		}

		log := c.opts.Logger.WithContext(ctx)
		if errors.Code(err) == errors.ErrCodeInternal {
			log.Error("resource operation failed",
				zap.String("collection", c.collection),
				zap.String("operation", op),
				zap.Error(err),
			)
		} else {
			log.Debug("resource operation rejected",
				zap.String("collection", c.collection),
				zap.String("operation", op),
				zap.Error(err),
			)
		}
		return response.Fail(err)
	}
}

// classify 收敛为 InvalidArgument / NotFound / Internal 三类
func (c *Controller[T, PT]) classify(err error) error {
	if err == nil {
		return nil
	}
	switch errors.Code(err) {
	case errors.ErrCodeInvalidArgument:
		return err
	case errors.ErrCodeNotFound:
		return errors.NotFound(fmt.Sprintf("%s not found", c.model))
	case errors.ErrCodeInternal:
		return err
	}
	return errors.Internal(err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch errors.Code(err) {
	case errors.ErrCodeInvalidArgument:
		return "invalid"
	case errors.ErrCodeNotFound:
		return "not_found"
	}
	return "error"
}

/* ========================================================================
 * 操作实现
 * ======================================================================== */

func (c *Controller[T, PT]) create(ctx context.Context, actor *Actor, body []byte) (PT, error) {
	if c.immutable {
		return nil, c.immutableErr()
	}
	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}

	doc, err := c.decode(payload)
	if err != nil {
		return nil, err
	}
	if d, ok := any(doc).(entity.Defaulter); ok {
		d.ApplyDefaults()
	}
	if doc.HasAuthorField() {
		if a, ok := any(doc).(entity.Authored); ok {
			if ref := actor.Ref(); ref != nil {
				a.SetAuthorID(*ref)
			}
		}
	}
	normalizeRefs(doc, c.declared)
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if err := c.repo.Create(ctx, (*T)(doc)); err != nil {
		return nil, err
	}

	c.record(ctx, entity.OpCreate, actor, doc, nil)
	return doc, nil
}

func (c *Controller[T, PT]) list(ctx context.Context, query map[string]string) (*response.Page, error) {
	req, err := c.opts.Paginator.Parse(query, c.fields)
	if err != nil {
		return nil, err
	}

	result, err := c.repo.FindPage(ctx, req.Page, req.Limit,
		repository.WithScopes(BuildFilters(c.fields, query)...),
		req.Order(),
	)
	if err != nil {
		return nil, err
	}

	docs := make([]map[string]any, 0, len(result.List))
	for i := range result.List {
		data, err := PT(&result.List[i]).Serialize()
		if err != nil {
			return nil, errors.Internal(err)
		}
		docs = append(docs, data)
	}
	return NewPage(docs, result.Total, req), nil
}

// immutableErr 只读形态仅由内部组件写入
func (c *Controller[T, PT]) immutableErr() error {
	return errors.Validation(fmt.Sprintf("%s documents are immutable", c.model))
}

func (c *Controller[T, PT]) update(ctx context.Context, actor *Actor, id string, body []byte) (PT, error) {
	if c.immutable {
		return nil, c.immutableErr()
	}

	var doc PT
	var before map[string]any
	// 存在性检查与写入在同一事务内完成，避免并发删除后被改写
	err := c.repo.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		if doc, err = c.enforcer.Live(txCtx, id); err != nil {
			return err
		}
		payload, err := decodePayload(body)
		if err != nil {
			return err
		}
		payload = c.opts.Guard.Sanitize(payload)

		if before, err = doc.Serialize(); err != nil {
			return errors.Internal(err)
		}

		patch, err := c.decode(payload)
		if err != nil {
			return err
		}
		mergeFields(doc, patch, c.declared, payload)
		normalizeRefs(doc, c.declared)
		if err := doc.Validate(); err != nil {
			return err
		}
		return c.repo.Update(txCtx, (*T)(doc), repository.ColumnCreatedAt)
	})
	if err != nil {
		return nil, err
	}

	c.record(ctx, entity.OpUpdate, actor, doc, before)
	return doc, nil
}

func (c *Controller[T, PT]) softDelete(ctx context.Context, actor *Actor, id string) error {
	var doc PT
	var before map[string]any
	by := actor.Ref()
	err := c.repo.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		if doc, err = c.enforcer.Live(txCtx, id); err != nil {
			return err
		}
		if before, err = doc.Serialize(); err != nil {
			return errors.Internal(err)
		}
		return c.repo.SoftDelete(txCtx, doc.Base().ID, by)
	})
	if err != nil {
		return err
	}
	doc.Base().MarkDeleted(c.db.NowFunc(), by)

	c.record(ctx, entity.OpSoftDelete, actor, doc, before)
	return nil
}

// record 通知变更接收方；快照失败只记录日志
func (c *Controller[T, PT]) record(ctx context.Context, op string, actor *Actor, doc PT, before map[string]any) {
	after, err := doc.Serialize()
	if err != nil {
		c.opts.Logger.WithContext(ctx).Warn("serialize mutation snapshot", zap.Error(err))
		return
	}
	c.opts.Sink.Record(ctx, Mutation{
		Collection: c.collection,
		ModelName:  c.model,
		DocumentID: doc.Base().ID,
		Operation:  op,
		Actor:      actor,
		Before:     before,
		After:      after,
	})
}

/* ========================================================================
 * 载荷处理
 * ======================================================================== */

// decodePayload 解析请求体为 JSON 对象，空请求体视为空对象
func decodePayload(body []byte) (map[string]json.RawMessage, error) {
	payload := make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(body)) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Validation("request body must be a JSON object")
	}
	if payload == nil {
		payload = make(map[string]json.RawMessage)
	}
	return payload, nil
}

// decode 仅将声明字段解码进新文档，系统字段与未知键被忽略
func (c *Controller[T, PT]) decode(payload map[string]json.RawMessage) (PT, error) {
	known := make(map[string]json.RawMessage, len(payload))
	for _, f := range c.declared {
		if raw, ok := payload[f.Name]; ok {
			known[f.Name] = raw
		}
	}

	doc := PT(new(T))
	raw, err := json.Marshal(known)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		field := "payload"
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) && typeErr.Field != "" {
			field = typeErr.Field
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidArgument,
			fmt.Sprintf("%s validation failed: %s: invalid value", c.model, field), err)
	}
	return doc, nil
}

// mergeFields 将载荷中出现的声明字段逐个覆盖到 dst（嵌套对象整体替换）
func mergeFields(dst, src any, fields []entity.Field, present map[string]json.RawMessage) {
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()
	for _, f := range fields {
		if _, ok := present[f.Name]; !ok {
			continue
		}
		dv.FieldByIndex(f.Index).Set(sv.FieldByIndex(f.Index))
	}
}

// normalizeRefs 引用字段中的 ULID 统一为大写
func normalizeRefs(doc any, fields []entity.Field) {
	v := reflect.ValueOf(doc).Elem()
	for _, f := range fields {
		if f.Kind != entity.KindRef {
			continue
		}
		fv := v.FieldByIndex(f.Index)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if fv.Kind() == reflect.String && ulid.IsValid(fv.String()) {
			fv.SetString(ulid.Normalize(fv.String()))
		}
	}
}
