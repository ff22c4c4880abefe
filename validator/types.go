package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

/* ========================================================================
 * Validator Types - 验证器类型定义
 * ========================================================================
 * 职责: 定义验证错误类型
 * ======================================================================== */

const (
	// tagCustom 自定义错误消息标签名
	tagCustom = "error_msg"
	// ruleSeparator 规则分隔符，用于分隔多个规则
	ruleSeparator = "|"
	// keyValueSep 键值分隔符，用于分隔规则名和错误消息
	keyValueSep = ":"
)

// ValidationError 按字段分组的验证错误
// 使用示例:
//
//	type UserRequest struct {
//	    Email    string `validate:"required,email" error_msg:"required:邮箱必填|email:邮箱格式错误"`
//	    Password string `validate:"required,min=8" error_msg:"required:密码必填|min:密码至少8位"`
//	}
type ValidationError struct {
	Errors map[string][]string // 字段名 -> 错误消息列表
}

// Error 实现 error 接口，字段按字典序输出
func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(v.Errors[field], ", ")))
	}
	return strings.Join(parts, "; ")
}

// HasErrors 检查是否有验证错误
func (v ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add 添加字段错误
func (v *ValidationError) Add(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string][]string)
	}
	v.Errors[field] = append(v.Errors[field], message)
}

// Get 获取字段错误消息
func (v *ValidationError) Get(field string) []string {
	if v.Errors == nil {
		return nil
	}
	return v.Errors[field]
}

// Merge 合并另一个验证错误；非 ValidationError 记到 field 名下
func (v *ValidationError) Merge(field string, err error) {
	if err == nil {
		return
	}
	var other *ValidationError
	if errors.As(err, &other) {
		for f, msgs := range other.Errors {
			for _, m := range msgs {
				v.Add(f, m)
			}
		}
		return
	}
	v.Add(field, err.Error())
}

// Err 无错误时返回 nil，便于直接 return
func (v *ValidationError) Err() error {
	if v == nil || !v.HasErrors() {
		return nil
	}
	return v
}
