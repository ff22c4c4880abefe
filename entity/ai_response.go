package entity

import (
	"github.com/aisgo/ais-edu/repository"

	"gorm.io/datatypes"
)

// AiResponse 模型返回结果，与请求一一对应
type AiResponse struct {
	repository.BaseModel
	AIRequestID  string         `json:"aiRequestId" gorm:"column:ai_request_id;type:varchar(26);uniqueIndex" validate:"required,ulid" error_msg:"required:aiRequestId is required|ulid:aiRequestId must be a document id"`
	ResponseText string         `json:"responseText" gorm:"column:response_text"`
	Structured   datatypes.JSON `json:"structured" gorm:"column:structured"`
	TokensIn     int64          `json:"tokensIn" gorm:"column:tokens_in" validate:"gte=0"`
	TokensOut    int64          `json:"tokensOut" gorm:"column:tokens_out" validate:"gte=0"`
	CostUSD      float64        `json:"costUsd" gorm:"column:cost_usd" validate:"gte=0"`
	ProviderMeta datatypes.JSON `json:"providerMeta" gorm:"column:provider_meta"`
	Cached       bool           `json:"cached" gorm:"column:cached;not null;default:false"`
}

func (AiResponse) TableName() string { return "ai_responses" }

func (AiResponse) ModelName() string { return "AiResponse" }

func (*AiResponse) HasAuthorField() bool { return false }

func (*AiResponse) DeclaredFields() []Field { return DeclaredOf(AiResponse{}) }

func (r *AiResponse) Validate() error { return check(r.ModelName(), r) }

func (r *AiResponse) Serialize() (map[string]any, error) { return serialize(r) }
