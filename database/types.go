package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

/* ========================================================================
 * JSONB Type - 无结构 JSON 对象列
 * ========================================================================
 * 职责: 映射自由结构的对象字段 (preferences / metadata / details 等)
 *       postgres 使用 JSONB，mysql 使用 JSON，sqlite 存为 TEXT
 * ======================================================================== */

// JSONB 自由结构 JSON 对象
type JSONB map[string]any

// Value 实现 driver.Valuer 接口
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner 接口
func (j *JSONB) Scan(value any) error {
	if value == nil {
		*j = make(JSONB)
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for JSONB scan")
	}
	if len(data) == 0 {
		*j = make(JSONB)
		return nil
	}
	return json.Unmarshal(data, j)
}

// GormDataType 通用类型名
func (JSONB) GormDataType() string {
	return "json"
}

// GormDBDataType 按方言返回列类型
func (JSONB) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	case "mysql":
		return "JSON"
	}
	return "TEXT"
}

// Clone 浅拷贝顶层键
func (j JSONB) Clone() JSONB {
	if j == nil {
		return nil
	}
	out := make(JSONB, len(j))
	for k, v := range j {
		out[k] = v
	}
	return out
}
