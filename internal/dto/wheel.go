package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 转盘模块 DTO ──

// PrizeSnapshot 兑换码上保存的奖品快照
type PrizeSnapshot struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// SpinResponse 抽奖结果
// 前端按 prize.id 在 segments 中定位停转扇区；segment_index 是抽奖时最新目录中的下标，
// segments 可能来自缓存，两者不一致时以 prize.id 为准
type SpinResponse struct {
	Prize        PrizeSnapshot `json:"prize"`
	SegmentIndex int           `json:"segment_index"` // 仅供参考
	Code         string        `json:"code"`
	ClaimLink    string        `json:"claim_link"`
	IssuedAt     time.Time     `json:"issued_at"`
}

// SegmentResponse 转盘扇区（仅用于展示）
type SegmentResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	ChancePercent decimal.Decimal `json:"chance_percent"`
}

// RedeemRequest 核销请求
type RedeemRequest struct {
	Code string `json:"code" binding:"required,max=32"`
}

// RedeemStatus 核销结果类型
type RedeemStatus string

const (
	RedeemStatusRedeemed    RedeemStatus = "redeemed"
	RedeemStatusNotFound    RedeemStatus = "not_found"
	RedeemStatusAlreadyUsed RedeemStatus = "already_used"
)

// RedeemResult 核销结果
// Status 为 not_found 时 Prize 为空；already_used 时携带首次核销的奖品与时间
type RedeemResult struct {
	Status     RedeemStatus   `json:"status"`
	Code       string         `json:"code"`
	Prize      *PrizeSnapshot `json:"prize,omitempty"`
	UsedAt     *time.Time     `json:"used_at,omitempty"`
	RedeemedBy string         `json:"redeemed_by,omitempty"`
}

// CodeResponse 兑换码查询结果
type CodeResponse struct {
	Code       string        `json:"code"`
	Prize      PrizeSnapshot `json:"prize"`
	OwnerRef   string        `json:"owner_ref,omitempty"`
	IssuedAt   time.Time     `json:"issued_at"`
	Used       bool          `json:"used"`
	UsedAt     *time.Time    `json:"used_at,omitempty"`
	RedeemedBy string        `json:"redeemed_by,omitempty"`
}
