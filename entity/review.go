package entity

import "github.com/aisgo/ais-edu/repository"

// Review 用户评分
type Review struct {
	repository.BaseModel
	UserID     string  `json:"userId" gorm:"column:user_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:userId is required|ulid:userId must be a document id"`
	TargetType string  `json:"targetType" gorm:"column:target_type;size:16" validate:"required,oneof=route card lesson" error_msg:"required:targetType is required"`
	TargetID   string  `json:"targetId" gorm:"column:target_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:targetId is required|ulid:targetId must be a document id"`
	Rating     float64 `json:"rating" gorm:"column:rating" validate:"gte=1,lte=5" error_msg:"gte:rating must be between 1 and 5|lte:rating must be between 1 and 5"`
	Comment    string  `json:"comment" gorm:"column:comment"`
}

func (Review) TableName() string { return "reviews" }

func (Review) ModelName() string { return "Review" }

func (*Review) HasAuthorField() bool { return false }

func (*Review) DeclaredFields() []Field { return DeclaredOf(Review{}) }

func (r *Review) ApplyDefaults() { trimAll(&r.Comment) }

func (r *Review) Validate() error { return check(r.ModelName(), r) }

func (r *Review) Serialize() (map[string]any, error) { return serialize(r) }
