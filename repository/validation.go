package repository

import (
	"fmt"
	"regexp"
)

/* ========================================================================
 * Order Guard - 排序列校验
 * ========================================================================
 * 职责: 排序列在拼接进 ORDER BY 前的白名单校验
 * 规则: 仅允许 snake_case 标识符，可带一级表前缀
 * ======================================================================== */

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*(\.[a-z_][a-z0-9_]*)?$`)

// ValidateColumn 校验单个列名
func ValidateColumn(column string) error {
	if column == "" {
		return fmt.Errorf("empty column")
	}
	if !identPattern.MatchString(column) {
		return fmt.Errorf("column %q is not a plain identifier", column)
	}
	return nil
}
