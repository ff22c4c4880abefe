package entity

import (
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/validator"

	"gorm.io/datatypes"
)

// RouteVersion 路线内容快照
type RouteVersion struct {
	repository.BaseModel
	RouteID         string                              `json:"routeId" gorm:"column:route_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:routeId is required|ulid:routeId must be a document id"`
	Version         int64                               `json:"version" gorm:"column:version" validate:"required,gte=1" error_msg:"required:version is required|gte:version must be at least 1"`
	CreatedBy       *string                             `json:"createdBy" gorm:"column:created_by;type:varchar(26)" validate:"omitempty,ulid"`
	ContentSnapshot datatypes.JSONType[ContentSnapshot] `json:"contentSnapshot" gorm:"column:content_snapshot"`
	TokenUsage      datatypes.JSONType[TokenUsage]      `json:"tokenUsage" gorm:"column:token_usage"`
	CacheKey        string                              `json:"cacheKey" gorm:"column:cache_key;index"`
	Note            string                              `json:"note" gorm:"column:note"`
}

// ContentSnapshot 快照时的路线内容
type ContentSnapshot struct {
	Title   string         `json:"title,omitempty"`
	Summary string         `json:"summary,omitempty"`
	Cards   []SnapshotCard `json:"cards,omitempty"`
}

// SnapshotCard 快照中的卡片摘要
type SnapshotCard struct {
	CardID  string `json:"cardId,omitempty" validate:"omitempty,ulid"`
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
	Order   int64  `json:"order"`
}

func (RouteVersion) TableName() string { return "route_versions" }

func (RouteVersion) ModelName() string { return "RouteVersion" }

func (*RouteVersion) HasAuthorField() bool { return false }

func (*RouteVersion) DeclaredFields() []Field { return DeclaredOf(RouteVersion{}) }

func (v *RouteVersion) ApplyDefaults() { trimAll(&v.CacheKey, &v.Note) }

func (v *RouteVersion) Validate() error {
	snap, usage := v.ContentSnapshot.Data(), v.TokenUsage.Data()
	return check(v.ModelName(), v,
		nestedCheck("tokenUsage", &usage),
		func(agg *validator.ValidationError) {
			for _, c := range snap.Cards {
				agg.Merge("contentSnapshot.cards", validate.ValidatePrefixed("contentSnapshot.cards", &c))
			}
		},
	)
}

func (v *RouteVersion) Serialize() (map[string]any, error) { return serialize(v) }
