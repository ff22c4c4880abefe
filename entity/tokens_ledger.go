package entity

import (
	"github.com/aisgo/ais-edu/repository"
	"github.com/aisgo/ais-edu/validator"
)

// TokensLedgerEntry 代币账本流水
type TokensLedgerEntry struct {
	repository.BaseModel
	UserID       string   `json:"userId" gorm:"column:user_id;type:varchar(26);index" validate:"required,ulid" error_msg:"required:userId is required|ulid:userId must be a document id"`
	Change       *float64 `json:"change" gorm:"column:change"`
	BalanceAfter *float64 `json:"balanceAfter" gorm:"column:balance_after"`
	Reason       string   `json:"reason" gorm:"column:reason;size:16" validate:"required,oneof=purchase ad_reward unlock_card admin_adj refund" error_msg:"required:reason is required"`
	RelatedID    *string  `json:"relatedId" gorm:"column:related_id;type:varchar(26)" validate:"omitempty,ulid"`
}

func (TokensLedgerEntry) TableName() string { return "tokens_ledger" }

func (TokensLedgerEntry) ModelName() string { return "TokensLedger" }

func (*TokensLedgerEntry) HasAuthorField() bool { return false }

func (*TokensLedgerEntry) DeclaredFields() []Field { return DeclaredOf(TokensLedgerEntry{}) }

func (e *TokensLedgerEntry) Validate() error {
	return check(e.ModelName(), e, func(agg *validator.ValidationError) {
		if e.Change == nil {
			agg.Add("change", "change is required")
		}
		if e.BalanceAfter == nil {
			agg.Add("balanceAfter", "balanceAfter is required")
		}
	})
}

func (e *TokensLedgerEntry) Serialize() (map[string]any, error) { return serialize(e) }
