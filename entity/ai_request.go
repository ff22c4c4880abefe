package entity

import (
	"github.com/aisgo/ais-edu/repository"

	"gorm.io/datatypes"
)

// AiRequest 发往模型提供方的一次请求
type AiRequest struct {
	repository.BaseModel
	UserID   *string        `json:"userId" gorm:"column:user_id;type:varchar(26);index" validate:"omitempty,ulid"`
	RouteID  *string        `json:"routeId" gorm:"column:route_id;type:varchar(26)" validate:"omitempty,ulid"`
	CardID   *string        `json:"cardId" gorm:"column:card_id;type:varchar(26)" validate:"omitempty,ulid"`
	LessonID *string        `json:"lessonId" gorm:"column:lesson_id;type:varchar(26)" validate:"omitempty,ulid"`
	Prompt   string         `json:"prompt" gorm:"column:prompt" validate:"required" error_msg:"required:prompt is required"`
	Model    string         `json:"model" gorm:"column:model;size:64" validate:"required" error_msg:"required:model is required"`
	Provider string         `json:"provider" gorm:"column:provider;size:32"`
	Status   string         `json:"status" gorm:"column:status;size:16;index" validate:"oneof=pending done failed cached"`
	CacheHit bool           `json:"cacheHit" gorm:"column:cache_hit;not null;default:false"`
	Extra    datatypes.JSON `json:"extra" gorm:"column:extra"`
}

func (AiRequest) TableName() string { return "ai_requests" }

func (AiRequest) ModelName() string { return "AiRequest" }

func (*AiRequest) HasAuthorField() bool { return false }

func (*AiRequest) DeclaredFields() []Field { return DeclaredOf(AiRequest{}) }

func (r *AiRequest) ApplyDefaults() {
	trimAll(&r.Model, &r.Provider)
	defaultString(&r.Status, "pending")
}

func (r *AiRequest) Validate() error { return check(r.ModelName(), r) }

func (r *AiRequest) Serialize() (map[string]any, error) { return serialize(r) }
