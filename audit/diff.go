package audit

import (
	"sort"

	"github.com/aisgo/ais-edu/database"

	"github.com/google/go-cmp/cmp"
)

// ignoredKeys 不参与差异计算的字段
var ignoredKeys = map[string]bool{
	"updatedAt": true,
}

// Change 单字段变更
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Diff 比较序列化快照的顶层字段，嵌套对象整体比较
// 结果形如 {"title": {"from": "a", "to": "b"}}，新增字段 from 为 nil，移除字段 to 为 nil
func Diff(before, after map[string]any) database.JSONB {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	names := make([]string, 0, len(keys))
	for k := range keys {
		if !ignoredKeys[k] {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	diff := make(database.JSONB)
	for _, k := range names {
		from, to := before[k], after[k]
		if cmp.Equal(from, to) {
			continue
		}
		diff[k] = map[string]any{"from": from, "to": to}
	}
	return diff
}
