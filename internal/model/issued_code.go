package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// IssuedCode 已发放兑换码表 — 对应 issued_codes
// PrizeName / PrizeAmount 为发放时的奖品快照，之后修改奖品不影响已发放的码。
// 记录只增不删，Used 由 false 变为 true 后不再修改。
type IssuedCode struct {
	IssuedCodeID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"issued_code_id"`
	Code         string          `gorm:"type:varchar(32);not null;uniqueIndex:uq_issued_codes_code" json:"code"`
	PrizeID      string          `gorm:"type:uuid;not null;index"                       json:"prize_id"`
	PrizeName    string          `gorm:"type:varchar(100);not null"                     json:"prize_name"`
	PrizeAmount  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"          json:"prize_amount"`
	OwnerRef     *string         `gorm:"type:varchar(128);index"                        json:"owner_ref,omitempty"`
	IssuedAt     time.Time       `gorm:"not null"                                       json:"issued_at"`
	Used         bool            `gorm:"not null;default:false"                         json:"used"`
	UsedAt       *time.Time      `json:"used_at,omitempty"`
	RedeemedBy   *string         `gorm:"type:varchar(128)"                              json:"redeemed_by,omitempty"`
}

// TableName 指定表名
func (IssuedCode) TableName() string { return "issued_codes" }
