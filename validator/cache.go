package validator

import (
	"database/sql/driver"
	"reflect"
	"strings"
	"sync"
	"time"
)

/* ========================================================================
 * Type Cache - 类型信息缓存
 * ========================================================================
 * 职责: 缓存结构体类型信息，减少反射开销
 * ======================================================================== */

var (
	timeType   = reflect.TypeOf(time.Time{})
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// fieldInfo 字段信息
type fieldInfo struct {
	index       int    // 字段下标
	name        string // 对外名称（json 标签优先）
	validateTag string // validate 标签值
	errorMsgTag string // error_msg 标签值
	isStruct    bool   // 是否需要递归验证
	isPtr       bool   // 是否为指针类型
	embedded    bool   // 匿名嵌入，递归时不加前缀
}

// typeCache 类型缓存
type typeCache struct {
	mu    sync.RWMutex
	cache map[reflect.Type][]fieldInfo
}

// newTypeCache 创建类型缓存
func newTypeCache() *typeCache {
	return &typeCache{
		cache: make(map[reflect.Type][]fieldInfo),
	}
}

// get 获取类型字段信息（带缓存）
func (tc *typeCache) get(t reflect.Type) ([]fieldInfo, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	info, exists := tc.cache[t]
	return info, exists
}

// getFieldsInfo 获取类型的字段信息（带缓存）
func (tc *typeCache) getFieldsInfo(t reflect.Type) []fieldInfo {
	if info, exists := tc.get(t); exists {
		return info
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	// 双重检查，防止并发重复解析
	if info, exists := tc.cache[t]; exists {
		return info
	}

	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			// 跳过未导出字段：反射读取 Interface() 会 panic
			continue
		}
		validateTag := field.Tag.Get("validate")
		if validateTag == "-" {
			continue
		}

		fieldType := field.Type
		isPtr := fieldType.Kind() == reflect.Ptr
		if isPtr {
			fieldType = fieldType.Elem()
		}

		fields = append(fields, fieldInfo{
			index:       i,
			name:        externalName(field),
			validateTag: validateTag,
			errorMsgTag: field.Tag.Get(tagCustom),
			isStruct:    isNestedStruct(fieldType),
			isPtr:       isPtr,
			embedded:    field.Anonymous,
		})
	}

	tc.cache[t] = fields
	return fields
}

// externalName 返回 json 标签名，缺省为字段名
func externalName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return field.Name
}

// isNestedStruct 普通结构体需要递归；time.Time 与数据库值类型按标量处理
func isNestedStruct(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t == timeType {
		return false
	}
	if t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType) {
		return false
	}
	return true
}
