package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Prize      PrizeRepository
	IssuedCode IssuedCodeRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Prize:      NewPrizeRepo(db),
		IssuedCode: NewIssuedCodeRepo(db),
	}
}
