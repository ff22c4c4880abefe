package entity

import "github.com/aisgo/ais-edu/repository"

// Report 用户对内容或其他用户的举报
type Report struct {
	repository.BaseModel
	ReporterID string `json:"reporterId" gorm:"column:reporter_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:reporterId is required|ulid:reporterId must be a document id"`
	TargetType string `json:"targetType" gorm:"column:target_type;size:16" validate:"required,oneof=route card lesson exercise user" error_msg:"required:targetType is required"`
	TargetID   string `json:"targetId" gorm:"column:target_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:targetId is required|ulid:targetId must be a document id"`
	Reason     string `json:"reason" gorm:"column:reason" validate:"required" error_msg:"required:reason is required"`
	Details    string `json:"details" gorm:"column:details"`
	Status     string `json:"status" gorm:"column:status;size:16;index" validate:"oneof=open in_review resolved rejected"`
}

func (Report) TableName() string { return "reports" }

func (Report) ModelName() string { return "Report" }

func (*Report) HasAuthorField() bool { return false }

func (*Report) DeclaredFields() []Field { return DeclaredOf(Report{}) }

func (r *Report) ApplyDefaults() {
	trimAll(&r.Reason, &r.Details)
	defaultString(&r.Status, "open")
}

func (r *Report) Validate() error { return check(r.ModelName(), r) }

func (r *Report) Serialize() (map[string]any, error) { return serialize(r) }
