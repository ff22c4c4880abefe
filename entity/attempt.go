package entity

import (
	"time"

	"github.com/aisgo/ais-edu/repository"

	"gorm.io/datatypes"
)

// Attempt 用户对某道练习的一次作答
type Attempt struct {
	repository.BaseModel
	UserID       string                           `json:"userId" gorm:"column:user_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:userId is required|ulid:userId must be a document id"`
	ExerciseID   string                           `json:"exerciseId" gorm:"column:exercise_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:exerciseId is required|ulid:exerciseId must be a document id"`
	LessonID     *string                          `json:"lessonId" gorm:"column:lesson_id;type:varchar(26)" validate:"omitempty,ulid"`
	CardID       *string                          `json:"cardId" gorm:"column:card_id;type:varchar(26)" validate:"omitempty,ulid"`
	Response     datatypes.JSON                   `json:"response" gorm:"column:response"`
	IsCorrect    *bool                            `json:"isCorrect" gorm:"column:is_correct"`
	Score        float64                          `json:"score" gorm:"column:score" validate:"gte=0,lte=1"`
	TimeTakenSec *float64                         `json:"timeTakenSec" gorm:"column:time_taken_sec" validate:"omitempty,gte=0"`
	PlanSnapshot datatypes.JSONType[PlanSnapshot] `json:"planSnapshot" gorm:"column:plan_snapshot"`
	AIEvaluation datatypes.JSONType[AIEvaluation] `json:"aiEvaluation" gorm:"column:ai_evaluation"`
}

// PlanSnapshot 作答时的订阅层级
type PlanSnapshot struct {
	Tier string     `json:"tier,omitempty"`
	At   *time.Time `json:"at,omitempty"`
}

// AIEvaluation AI 判分消耗
type AIEvaluation struct {
	AIRequestID *string `json:"aiRequestId,omitempty" validate:"omitempty,ulid"`
	TokensIn    int64   `json:"tokensIn" validate:"gte=0"`
	TokensOut   int64   `json:"tokensOut" validate:"gte=0"`
	CostUSD     float64 `json:"costUsd" validate:"gte=0"`
}

func (Attempt) TableName() string { return "attempts" }

func (Attempt) ModelName() string { return "Attempt" }

func (*Attempt) HasAuthorField() bool { return false }

func (*Attempt) DeclaredFields() []Field { return DeclaredOf(Attempt{}) }

func (a *Attempt) ApplyDefaults() {
	snap := a.PlanSnapshot.Data()
	if snap.At == nil {
		now := nowUTC()
		snap.At = &now
	}
	a.PlanSnapshot = datatypes.NewJSONType(snap)
}

func (a *Attempt) Validate() error {
	eval := a.AIEvaluation.Data()
	return check(a.ModelName(), a, nestedCheck("aiEvaluation", &eval))
}

func (a *Attempt) Serialize() (map[string]any, error) { return serialize(a) }
