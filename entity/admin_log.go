package entity

import (
	"github.com/aisgo/ais-edu/repository"

	"gorm.io/datatypes"
)

// AdminLog 管理员操作记录
type AdminLog struct {
	repository.BaseModel
	ActorID    string         `json:"actorId" gorm:"column:actor_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:actorId is required|ulid:actorId must be a document id"`
	Action     string         `json:"action" gorm:"column:action;size:64" validate:"required" error_msg:"required:action is required"`
	TargetType string         `json:"targetType" gorm:"column:target_type;size:32" validate:"required" error_msg:"required:targetType is required"`
	TargetID   string         `json:"targetId" gorm:"column:target_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:targetId is required|ulid:targetId must be a document id"`
	Details    datatypes.JSON `json:"details" gorm:"column:details"`
}

func (AdminLog) TableName() string { return "admin_logs" }

func (AdminLog) ModelName() string { return "AdminLog" }

func (*AdminLog) HasAuthorField() bool { return false }

func (*AdminLog) DeclaredFields() []Field { return DeclaredOf(AdminLog{}) }

func (l *AdminLog) ApplyDefaults() { trimAll(&l.Action, &l.TargetType) }

func (l *AdminLog) Validate() error { return check(l.ModelName(), l) }

func (l *AdminLog) Serialize() (map[string]any, error) { return serialize(l) }
