package entity

import (
	"database/sql/driver"
	"reflect"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm/schema"
	"gorm.io/plugin/soft_delete"
)

/* ========================================================================
 * Field Descriptors - 文档字段描述
 * ========================================================================
 * 职责: 从结构体标签推导对外字段名、数据库列名与字段类别
 *       过滤、排序、合并更新均基于该描述，而非直接使用请求中的键
 * 标签:
 *   json      对外字段名
 *   gorm      column:xxx 指定列名，缺省按 GORM 命名策略
 *   edu       secret (不可过滤、不输出) / ref (强制视为文档引用)
 * ======================================================================== */

// Kind 字段类别
type Kind int

const (
	KindString Kind = iota // 文本
	KindRef                // 文档引用 (ULID)
	KindNumber             // 数值
	KindBool               // 布尔
	KindTime               // 时间
	KindJSON               // 嵌套对象 / 数组 / 任意结构
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindRef:
		return "ref"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindJSON:
		return "json"
	}
	return "unknown"
}

// Field 字段描述
type Field struct {
	Name   string // 对外字段名 (camelCase)
	Column string // 数据库列名
	Kind   Kind
	System bool  // id / 时间戳 / 软删除三元组，由系统维护
	Secret bool  // 不参与过滤，不出现在序列化结果中
	Index  []int // 结构体字段下标路径
}

// Comparable 是否可用于过滤与排序
func (f Field) Comparable() bool {
	return f.Kind != KindJSON && !f.Secret
}

var (
	timeType      = reflect.TypeOf(time.Time{})
	valuerType    = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	softDelType   = reflect.TypeOf(soft_delete.DeletedAt(0))
	namer         = schema.NamingStrategy{}
	systemColumns = map[string]bool{
		"id": true, "created_at": true, "updated_at": true,
		"deleted": true, "deleted_at": true, "deleted_by": true,
	}
	fieldCache sync.Map // reflect.Type -> []Field
)

// FieldsOf 返回结构体的全部字段描述（含系统字段），结果按类型缓存
func FieldsOf(model any) []Field {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]Field)
	}

	fields := collectFields(t, nil)
	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.([]Field)
}

// DeclaredOf 返回非系统字段
func DeclaredOf(model any) []Field {
	all := FieldsOf(model)
	out := make([]Field, 0, len(all))
	for _, f := range all {
		if !f.System {
			out = append(out, f)
		}
	}
	return out
}

// Lookup 按对外字段名查找
func Lookup(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func collectFields(t reflect.Type, parent []int) []Field {
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		index := append(append([]int(nil), parent...), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			fields = append(fields, collectFields(sf.Type, index)...)
			continue
		}

		gormTag := schema.ParseTagSetting(sf.Tag.Get("gorm"), ";")
		if _, ignored := gormTag["-"]; ignored {
			continue
		}

		name := jsonName(sf)
		if name == "" {
			continue
		}

		column := gormTag["COLUMN"]
		if column == "" {
			column = namer.ColumnName("", sf.Name)
		}

		eduTag := sf.Tag.Get("edu")
		fields = append(fields, Field{
			Name:   name,
			Column: column,
			Kind:   kindOf(sf, eduTag),
			System: systemColumns[column],
			Secret: hasOption(eduTag, "secret"),
			Index:  index,
		})
	}
	return fields
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		// soft_delete 标记不走 json，但对外以 deleted 暴露
		if sf.Type == softDelType {
			return "deleted"
		}
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}

func kindOf(sf reflect.StructField, eduTag string) Kind {
	if hasOption(eduTag, "ref") {
		return KindRef
	}

	t := sf.Type
	if t == softDelType {
		return KindBool
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == timeType {
		return KindTime
	}

	switch t.Kind() {
	case reflect.String:
		if strings.HasSuffix(sf.Name, "ID") || strings.HasSuffix(sf.Name, "By") {
			return KindRef
		}
		return KindString
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if t.Implements(valuerType) {
			return KindJSON
		}
		return KindNumber
	}
	return KindJSON
}

func hasOption(tag, opt string) bool {
	for _, part := range strings.Split(tag, ",") {
		if strings.TrimSpace(part) == opt {
			return true
		}
	}
	return false
}
