package dto

import "github.com/shopspring/decimal"

// ── 奖品模块 DTO ──

// CreatePrizeRequest 创建奖品请求
type CreatePrizeRequest struct {
	Name         string           `json:"name"          binding:"required,min=1,max=100"`
	Amount       *decimal.Decimal `json:"amount"        binding:"required"`
	Weight       *decimal.Decimal `json:"weight"        binding:"required"`
	DisplayOrder int              `json:"display_order"`
	IsActive     *bool            `json:"is_active"`
}

// UpdatePrizeRequest 更新奖品请求
type UpdatePrizeRequest struct {
	Name         *string          `json:"name"          binding:"omitempty,min=1,max=100"`
	Amount       *decimal.Decimal `json:"amount"`
	Weight       *decimal.Decimal `json:"weight"`
	DisplayOrder *int             `json:"display_order"`
	IsActive     *bool            `json:"is_active"`
}

// PrizeListRequest 奖品列表查询参数
type PrizeListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// PrizeResponse 奖品信息响应
type PrizeResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	Weight       decimal.Decimal `json:"weight"`
	DisplayOrder int             `json:"display_order"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}
