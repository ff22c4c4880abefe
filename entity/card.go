package entity

import (
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/validator"

	"gorm.io/datatypes"
)

// Card 路线中的一个步骤，指向具体课程内容
type Card struct {
	repository.BaseModel
	RouteID       string                                `json:"routeId" gorm:"column:route_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:routeId is required|ulid:routeId must be a document id"`
	Title         string                                `json:"title" gorm:"column:title" validate:"required" error_msg:"required:title is required"`
	Order         int64                                 `json:"order" gorm:"column:order"`
	Type          string                                `json:"type" gorm:"column:type;size:24" validate:"oneof=lesson checkpoint exercise_bundle info"`
	ContentRef    datatypes.JSONType[CardContentRef]    `json:"contentRef" gorm:"column:content_ref"`
	Prerequisites datatypes.JSONSlice[CardPrerequisite] `json:"prerequisites" gorm:"column:prerequisites"`
	Summary       string                                `json:"summary" gorm:"column:summary"`
	Metadata      datatypes.JSONType[CardMetadata]      `json:"metadata" gorm:"column:metadata"`
	AIUsageCost   datatypes.JSONType[AIUsageCost]       `json:"aiUsageCost" gorm:"column:ai_usage_cost"`
	RatingAvg     float64                               `json:"ratingAvg" gorm:"column:rating_avg" validate:"gte=0,lte=5"`
	RatingCount   int64                                 `json:"ratingCount" gorm:"column:rating_count" validate:"gte=0"`
}

// CardContentRef 指向课程内容
type CardContentRef struct {
	LessonID *string `json:"lessonId,omitempty" validate:"omitempty,ulid"`
}

// CardPrerequisite 解锁条件：前置卡片与最低得分
type CardPrerequisite struct {
	CardID        string  `json:"cardId" validate:"omitempty,ulid"`
	RequiredScore float64 `json:"requiredScore" validate:"gte=0,lte=1"`
}

// CardMetadata 卡片元数据
type CardMetadata struct {
	DurationMin int64  `json:"durationMin" validate:"gte=0"`
	Difficulty  string `json:"difficulty" validate:"oneof=low medium high"`
}

func (Card) TableName() string { return "cards" }

func (Card) ModelName() string { return "Card" }

func (*Card) HasAuthorField() bool { return false }

func (*Card) DeclaredFields() []Field { return DeclaredOf(Card{}) }

func (c *Card) ApplyDefaults() {
	trimAll(&c.Title, &c.Summary)
	defaultString(&c.Type, "lesson")
	if c.Prerequisites == nil {
		c.Prerequisites = datatypes.JSONSlice[CardPrerequisite]{}
	}
	meta := c.Metadata.Data()
	defaultString(&meta.Difficulty, "medium")
	c.Metadata = datatypes.NewJSONType(meta)
}

func (c *Card) Validate() error {
	ref, meta, cost := c.ContentRef.Data(), c.Metadata.Data(), c.AIUsageCost.Data()
	return check(c.ModelName(), c,
		nestedCheck("contentRef", &ref),
		nestedCheck("metadata", &meta),
		nestedCheck("aiUsageCost", &cost),
		func(agg *validator.ValidationError) {
			for _, p := range c.Prerequisites {
				agg.Merge("prerequisites", validate.ValidatePrefixed("prerequisites", &p))
			}
		},
	)
}

func (c *Card) Serialize() (map[string]any, error) { return serialize(c) }
