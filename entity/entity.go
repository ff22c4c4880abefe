package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aisgo/ais-edu/errors"
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/validator"
)

/* ========================================================================
 * Entity - 文档形态
 * ========================================================================
 * 职责: 定义通用操作集所依赖的文档能力
 *   Validate        结构约束校验，失败返回 InvalidArgument
 *   Serialize       对外输出 (deleted 为布尔，敏感字段剔除)
 *   DeclaredFields  声明的业务字段，决定过滤 / 排序 / 合并的范围
 *   HasAuthorField  是否声明 authorId，创建时自动填充操作人
 * ======================================================================== */

// Entity 文档形态接口
type Entity interface {
	Base() *repository.BaseModel
	TableName() string
	ModelName() string
	Validate() error
	Serialize() (map[string]any, error)
	DeclaredFields() []Field
	HasAuthorField() bool
}

// Authored 声明 authorId 的形态实现
type Authored interface {
	SetAuthorID(id string)
}

// Defaulter 创建前补全默认值
type Defaulter interface {
	ApplyDefaults()
}

// Immutable 创建后只允许软删除的形态（审计记录）
type Immutable interface {
	Immutable()
}

var validate = validator.New()

// check 执行标签校验与附加的嵌套校验，合并为一个 InvalidArgument 错误
func check(modelName string, doc any, nested ...func(*validator.ValidationError)) error {
	agg := &validator.ValidationError{}
	agg.Merge(modelName, validate.Validate(doc))
	for _, fn := range nested {
		fn(agg)
	}
	if err := agg.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidArgument, fmt.Sprintf("%s validation failed: %s", modelName, err.Error()), err)
	}
	return nil
}

// nestedCheck 校验以 JSON 列保存的嵌套对象
func nestedCheck(prefix string, v any) func(*validator.ValidationError) {
	return func(agg *validator.ValidationError) {
		agg.Merge(prefix, validate.ValidatePrefixed(prefix, v))
	}
}

// serialize 通用序列化：JSON 往返为 map，替换 deleted 为布尔并剔除敏感字段
func serialize(e Entity) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out["deleted"] = e.Base().IsDeleted()
	for _, f := range e.DeclaredFields() {
		if f.Secret {
			delete(out, f.Name)
		}
	}
	return out, nil
}

// ========================================================================
// 公共辅助
// ========================================================================

func defaultString(s *string, def string) {
	if *s == "" {
		*s = def
	}
}

func defaultTrue(b **bool) {
	if *b == nil {
		v := true
		*b = &v
	}
}

func trimAll(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// BoolValue 读取可空布尔
func BoolValue(b *bool) bool {
	return b != nil && *b
}

// rawPresent JSON 值是否存在且非 null
func rawPresent(raw []byte) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}
