package resource

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aisgo/ais-edu/entity"
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/utils/id-generator/ulid"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 分页保留参数，不参与过滤
const (
	ParamPage  = "page"
	ParamLimit = "limit"
	ParamSort  = "sort"
)

const likeEscape = '!'

// Scope GORM 查询作用域
type Scope = func(*gorm.DB) *gorm.DB

// IsReserved 是否为分页保留参数
func IsReserved(key string) bool {
	return key == ParamPage || key == ParamLimit || key == ParamSort
}

// BuildFilters 将查询参数转换为查询作用域，首项恒为 LiveScope
//
// 规则（按字段类别）:
//   - 文本 / 引用: 值为 ULID 时精确匹配，否则不区分大小写的子串匹配
//   - 数值 / 布尔 / 时间: 解析后相等比较，无法解析则不匹配任何文档
//   - 嵌套对象与敏感字段、未声明的键: 不匹配任何文档
func BuildFilters(fields []entity.Field, query map[string]string) []Scope {
	keys := make([]string, 0, len(query))
	for k := range query {
		if !IsReserved(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	scopes := make([]Scope, 0, len(keys)+1)
	scopes = append(scopes, LiveScope)
	for _, k := range keys {
		scopes = append(scopes, predicate(fields, k, query[k]))
	}
	return scopes
}

func predicate(fields []entity.Field, key, value string) Scope {
	f, ok := entity.Lookup(fields, key)
	if !ok || !f.Comparable() {
		return matchNone
	}
	col := clause.Column{Table: clause.CurrentTable, Name: f.Column}

	switch f.Kind {
	case entity.KindString, entity.KindRef:
		if ulid.IsValid(value) {
			if f.Kind == entity.KindRef {
				value = ulid.Normalize(value)
			}
			return equals(col, value)
		}
		return contains(col, value)

	case entity.KindNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return matchNone
		}
		return equals(col, n)

	case entity.KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return matchNone
		}
		if f.Column == repository.ColumnDeleted {
			// 标记列为整数
			flag := 0
			if b {
				flag = 1
			}
			return equals(col, flag)
		}
		return equals(col, b)

	case entity.KindTime:
		ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
		if err != nil {
			return matchNone
		}
		return equals(col, ts.UTC())
	}
	return matchNone
}

func equals(col clause.Column, value any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{Column: col, Value: value})
	}
}

func contains(col clause.Column, value string) Scope {
	pattern := "%" + escapeLike(strings.ToLower(value)) + "%"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(?) LIKE ? ESCAPE '"+string(likeEscape)+"'", col, pattern)
	}
}

func matchNone(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

// escapeLike 转义 LIKE 通配符，用户输入按字面匹配
func escapeLike(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == likeEscape {
			b.WriteRune(likeEscape)
		}
		b.WriteRune(r)
	}
	return b.String()
}
