package model

import "github.com/shopspring/decimal"

// Prize 转盘奖品表 — 对应 prizes
// Weight 为相对权重，概率 = weight / 所有启用奖品权重之和
type Prize struct {
	PrizeID      string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"prize_id"`
	Name         string          `gorm:"type:varchar(100);not null"                     json:"name"`
	Amount       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"          json:"amount"`
	Weight       decimal.Decimal `gorm:"type:numeric(12,4);not null"                    json:"weight"`
	DisplayOrder int             `gorm:"not null;default:0"                             json:"display_order"`
	IsActive     bool            `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Prize) TableName() string { return "prizes" }
