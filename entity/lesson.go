package entity

import (
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/validator"

	"gorm.io/datatypes"
)

// Lesson 卡片下的课程正文：分节、闪卡与资源
type Lesson struct {
	repository.BaseModel
	CardID      string                             `json:"cardId" gorm:"column:card_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:cardId is required|ulid:cardId must be a document id"`
	Title       string                             `json:"title" gorm:"column:title"`
	Level       string                             `json:"level" gorm:"column:level;size:16" validate:"oneof=beginner intermediate advanced"`
	LessonPlan  string                             `json:"lessonPlan" gorm:"column:lesson_plan"`
	Sections    datatypes.JSONSlice[LessonSection] `json:"sections" gorm:"column:sections"`
	Flashcards  datatypes.JSONSlice[Flashcard]     `json:"flashcards" gorm:"column:flashcards"`
	Resources   datatypes.JSONSlice[string]        `json:"resources" gorm:"column:resources" validate:"dive,ulid"`
	AIUsageCost datatypes.JSONType[AIUsageCost]    `json:"aiUsageCost" gorm:"column:ai_usage_cost"`
}

// LessonSection 课程分节
type LessonSection struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Resources []string `json:"resources" validate:"dive,ulid"`
	Exercises []string `json:"exercises" validate:"dive,ulid"`
}

// Flashcard 问答卡
type Flashcard struct {
	Q string `json:"q"`
	A string `json:"a"`
}

func (Lesson) TableName() string { return "lessons" }

func (Lesson) ModelName() string { return "Lesson" }

func (*Lesson) HasAuthorField() bool { return false }

func (*Lesson) DeclaredFields() []Field { return DeclaredOf(Lesson{}) }

func (l *Lesson) ApplyDefaults() {
	trimAll(&l.Title, &l.LessonPlan)
	defaultString(&l.Level, "intermediate")
	if l.Sections == nil {
		l.Sections = datatypes.JSONSlice[LessonSection]{}
	}
	if l.Flashcards == nil {
		l.Flashcards = datatypes.JSONSlice[Flashcard]{}
	}
	if l.Resources == nil {
		l.Resources = datatypes.JSONSlice[string]{}
	}
}

func (l *Lesson) Validate() error {
	cost := l.AIUsageCost.Data()
	return check(l.ModelName(), l,
		nestedCheck("aiUsageCost", &cost),
		func(agg *validator.ValidationError) {
			for _, s := range l.Sections {
				agg.Merge("sections", validate.ValidatePrefixed("sections", &s))
			}
		},
	)
}

func (l *Lesson) Serialize() (map[string]any, error) { return serialize(l) }
