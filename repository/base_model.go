package repository

import (
	"time"

	"github.com/aisgo/ais-edu/utils/id-generator/ulid"

	"gorm.io/gorm"
	"gorm.io/plugin/soft_delete"
)

/* ========================================================================
 * Base Model - 基础模型
 * ========================================================================
 * 职责: 定义所有文档的公共字段
 * 字段: ULID 主键、创建/更新时间、软删除三元组 (deleted/deleted_at/deleted_by)
 * 注意: deleted 使用 soft_delete flag 模式，GORM 查询与更新自动附带 deleted = 0
 * ======================================================================== */

// System columns
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnDeleted   = "deleted"
	ColumnDeletedAt = "deleted_at"
	ColumnDeletedBy = "deleted_by"
)

// BaseModel 所有文档的基类
type BaseModel struct {
	ID        string                `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time             `json:"createdAt" gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time             `json:"updatedAt" gorm:"column:updated_at;autoUpdateTime"`
	Deleted   soft_delete.DeletedAt `json:"-" gorm:"column:deleted;not null;default:0;softDelete:flag;index"`
	DeletedAt *time.Time            `json:"deletedAt" gorm:"column:deleted_at"`
	DeletedBy *string               `json:"deletedBy" gorm:"column:deleted_by;size:64"`
}

// BeforeCreate GORM 钩子：在创建记录前生成 ULID
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = ulid.GenerateString()
	}
	return nil
}

// Base 返回基础字段指针，供泛型代码访问
func (m *BaseModel) Base() *BaseModel {
	return m
}

// IsDeleted 是否已软删除
func (m *BaseModel) IsDeleted() bool {
	return m.Deleted != 0
}

// MarkDeleted 设置软删除三元组
func (m *BaseModel) MarkDeleted(at time.Time, by *string) {
	m.Deleted = 1
	m.DeletedAt = &at
	m.DeletedBy = by
}
