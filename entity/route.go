package entity

import (
	"github.com/aisgo/ais-edu/repository"

	"gorm.io/datatypes"
)

// Route 学习路线：卡片集合、版本、难度元数据与 AI 消耗
type Route struct {
	repository.BaseModel
	Title           string                            `json:"title" gorm:"column:title" validate:"required" error_msg:"required:title is required"`
	Topic           string                            `json:"topic" gorm:"column:topic;index"`
	Description     string                            `json:"description" gorm:"column:description"`
	AuthorID        *string                           `json:"authorId" gorm:"column:author_id;type:varchar(26);index" validate:"omitempty,ulid"`
	CardIDs         datatypes.JSONSlice[string]       `json:"cardIds" gorm:"column:card_ids" validate:"dive,ulid"`
	CardCount       int64                             `json:"cardCount" gorm:"column:card_count" validate:"gte=0"`
	CurrentVersion  int64                             `json:"currentVersion" gorm:"column:current_version" validate:"gte=1"`
	LatestVersionID *string                           `json:"latestVersionId" gorm:"column:latest_version_id;type:varchar(26)" validate:"omitempty,ulid"`
	Tags            datatypes.JSONSlice[string]       `json:"tags" gorm:"column:tags"`
	Language        string                            `json:"language" gorm:"column:language;size:8"`
	Metadata        datatypes.JSONType[RouteMetadata] `json:"metadata" gorm:"column:metadata"`
	TokenUsage      datatypes.JSONType[TokenUsage]    `json:"tokenUsage" gorm:"column:token_usage"`
	RatingAvg       float64                           `json:"ratingAvg" gorm:"column:rating_avg" validate:"gte=0,lte=5"`
	RatingCount     int64                             `json:"ratingCount" gorm:"column:rating_count" validate:"gte=0"`
	IsPremiumOnly   bool                              `json:"isPremiumOnly" gorm:"column:is_premium_only"`
	Published       *bool                             `json:"published" gorm:"column:published"`
}

// RouteMetadata 路线元数据
type RouteMetadata struct {
	EstimatedDurationMin int64  `json:"estimatedDurationMin" validate:"gte=0"`
	Difficulty           string `json:"difficulty" validate:"oneof=bajo medio alto" error_msg:"oneof:difficulty must be one of bajo, medio, alto"`
	CreatedFromPrompt    string `json:"createdFromPrompt,omitempty"`
}

func (Route) TableName() string { return "routes" }

func (Route) ModelName() string { return "Route" }

func (*Route) HasAuthorField() bool { return true }

func (r *Route) SetAuthorID(id string) { r.AuthorID = &id }

func (*Route) DeclaredFields() []Field { return DeclaredOf(Route{}) }

func (r *Route) ApplyDefaults() {
	trimAll(&r.Title, &r.Topic, &r.Description)
	if r.CurrentVersion == 0 {
		r.CurrentVersion = 1
	}
	if r.CardIDs == nil {
		r.CardIDs = datatypes.JSONSlice[string]{}
	}
	if r.Tags == nil {
		r.Tags = datatypes.JSONSlice[string]{}
	}
	defaultString(&r.Language, "es")
	defaultTrue(&r.Published)

	meta := r.Metadata.Data()
	defaultString(&meta.Difficulty, "medio")
	r.Metadata = datatypes.NewJSONType(meta)
}

func (r *Route) Validate() error {
	meta, usage := r.Metadata.Data(), r.TokenUsage.Data()
	return check(r.ModelName(), r,
		nestedCheck("metadata", &meta),
		nestedCheck("tokenUsage", &usage),
	)
}

func (r *Route) Serialize() (map[string]any, error) { return serialize(r) }
