package entity

import (
	"github.com/aisgo/ais-edu/repository"

	"gorm.io/datatypes"
)

// Media 上传的媒体文件
type Media struct {
	repository.BaseModel
	UploaderID *string                           `json:"uploaderId" gorm:"column:uploader_id;type:varchar(26);index" validate:"omitempty,ulid"`
	Type       string                            `json:"type" gorm:"column:type;size:8" validate:"oneof=image audio video pdf other"`
	URL        string                            `json:"url" gorm:"column:url" validate:"required" error_msg:"required:url is required"`
	Metadata   datatypes.JSONType[MediaMetadata] `json:"metadata" gorm:"column:metadata"`
}

// MediaMetadata 媒体技术参数
type MediaMetadata struct {
	Width       *float64 `json:"width,omitempty" validate:"omitempty,gte=0"`
	Height      *float64 `json:"height,omitempty" validate:"omitempty,gte=0"`
	DurationSec *float64 `json:"durationSec,omitempty" validate:"omitempty,gte=0"`
}

func (Media) TableName() string { return "media" }

func (Media) ModelName() string { return "Media" }

func (*Media) HasAuthorField() bool { return false }

func (*Media) DeclaredFields() []Field { return DeclaredOf(Media{}) }

func (m *Media) ApplyDefaults() {
	trimAll(&m.URL)
	defaultString(&m.Type, "audio")
}

func (m *Media) Validate() error {
	meta := m.Metadata.Data()
	return check(m.ModelName(), m, nestedCheck("metadata", &meta))
}

func (m *Media) Serialize() (map[string]any, error) { return serialize(m) }
