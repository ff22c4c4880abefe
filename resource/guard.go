package resource

import (
	"encoding/json"
	"strings"
)

// ProtectedFields 通用更新路径禁止修改的字段
var ProtectedFields = []string{
	"role",
	"tokensBalance",
	"passwordHash",
	"deleted",
	"deletedAt",
	"deletedBy",
	"email",
}

// Guard 批量赋值防护，与调用方权限无关
type Guard struct {
	deny map[string]struct{}
}

// NewGuard 创建 Guard，额外字段与 ProtectedFields 取并集，内置字段不可移除
func NewGuard(extra ...string) *Guard {
	deny := make(map[string]struct{}, len(ProtectedFields)+len(extra))
	for _, f := range ProtectedFields {
		deny[f] = struct{}{}
	}
	for _, f := range extra {
		if f = strings.TrimSpace(f); f != "" {
			deny[f] = struct{}{}
		}
	}
	return &Guard{deny: deny}
}

// Denied 字段是否受保护
func (g *Guard) Denied(field string) bool {
	_, ok := g.deny[field]
	return ok
}

// Sanitize 返回剔除受保护字段后的新载荷，不修改入参
func (g *Guard) Sanitize(payload map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(payload))
	for k, v := range payload {
		if g.Denied(k) {
			continue
		}
		out[k] = v
	}
	return out
}
