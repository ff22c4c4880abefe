package entity

import (
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/validator"

	"gorm.io/datatypes"
)

// Exercise 课程中的练习；payload 结构随题型变化
type Exercise struct {
	repository.BaseModel
	LessonID   string                               `json:"lessonId" gorm:"column:lesson_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:lessonId is required|ulid:lessonId must be a document id"`
	CardID     string                               `json:"cardId" gorm:"column:card_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:cardId is required|ulid:cardId must be a document id"`
	Type       string                               `json:"type" gorm:"column:type;size:24" validate:"required,oneof=multiple_choice fill_blank matching drag_drop open_text flashcard" error_msg:"required:type is required"`
	Payload    datatypes.JSON                       `json:"payload" gorm:"column:payload"`
	Weight     *float64                             `json:"weight" gorm:"column:weight" validate:"omitempty,gte=0"`
	Difficulty string                               `json:"difficulty" gorm:"column:difficulty;size:8" validate:"oneof=low medium high"`
	Metadata   datatypes.JSONType[ExerciseMetadata] `json:"metadata" gorm:"column:metadata"`
}

// ExerciseMetadata 练习元数据
type ExerciseMetadata struct {
	TimeLimitSec *int64 `json:"timeLimitSec,omitempty" validate:"omitempty,gte=0"`
}

func (Exercise) TableName() string { return "exercises" }

func (Exercise) ModelName() string { return "Exercise" }

func (*Exercise) HasAuthorField() bool { return false }

func (*Exercise) DeclaredFields() []Field { return DeclaredOf(Exercise{}) }

func (e *Exercise) ApplyDefaults() {
	if e.Weight == nil {
		w := 1.0
		e.Weight = &w
	}
	defaultString(&e.Difficulty, "medium")
}

func (e *Exercise) Validate() error {
	meta := e.Metadata.Data()
	return check(e.ModelName(), e,
		nestedCheck("metadata", &meta),
		func(agg *validator.ValidationError) {
			if !rawPresent(e.Payload) {
				agg.Add("payload", "payload is required")
			}
		},
	)
}

func (e *Exercise) Serialize() (map[string]any, error) { return serialize(e) }
