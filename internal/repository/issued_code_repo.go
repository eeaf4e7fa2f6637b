package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"bonus-wheel/internal/model"
	pkgerrors "bonus-wheel/pkg/errors"
)

// IssuedCodeFilter 兑换码台账查询条件
type IssuedCodeFilter struct {
	PrizeID string
	Used    *bool
	From    *time.Time
	To      *time.Time
	Limit   int
}

// IssuedCodeRepository 兑换码台账数据访问接口
type IssuedCodeRepository interface {
	// Create 写入新发放的兑换码；code 唯一索引冲突时返回 pkgerrors.ErrDuplicateCode
	Create(ctx context.Context, code *model.IssuedCode) error
	Exists(ctx context.Context, code string) (bool, error)
	GetByCode(ctx context.Context, code string) (*model.IssuedCode, error)
	// MarkUsed 条件更新 used=false → true，返回本次调用是否完成了核销
	MarkUsed(ctx context.Context, code, redeemedBy string, at time.Time) (bool, error)
	List(ctx context.Context, filter IssuedCodeFilter) ([]model.IssuedCode, error)
}

type issuedCodeRepo struct {
	db *gorm.DB
}

// NewIssuedCodeRepo 创建 IssuedCodeRepository 实例
func NewIssuedCodeRepo(db *gorm.DB) IssuedCodeRepository {
	return &issuedCodeRepo{db: db}
}

func (r *issuedCodeRepo) Create(ctx context.Context, code *model.IssuedCode) error {
	err := r.db.WithContext(ctx).Create(code).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrDuplicateCode
	}
	return err
}

func (r *issuedCodeRepo) Exists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.IssuedCode{}).
		Where("code = ?", code).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *issuedCodeRepo) GetByCode(ctx context.Context, code string) (*model.IssuedCode, error) {
	var issued model.IssuedCode
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&issued).Error
	if err != nil {
		return nil, err
	}
	return &issued, nil
}

// MarkUsed 单条条件 UPDATE，并发核销同一兑换码时只有一个调用 RowsAffected == 1
func (r *issuedCodeRepo) MarkUsed(ctx context.Context, code, redeemedBy string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.IssuedCode{}).
		Where("code = ? AND used = ?", code, false).
		Updates(map[string]interface{}{
			"used":        true,
			"used_at":     at,
			"redeemed_by": redeemedBy,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *issuedCodeRepo) List(ctx context.Context, filter IssuedCodeFilter) ([]model.IssuedCode, error) {
	var codes []model.IssuedCode
	db := r.db.WithContext(ctx)

	if filter.PrizeID != "" {
		db = db.Where("prize_id = ?", filter.PrizeID)
	}
	if filter.Used != nil {
		db = db.Where("used = ?", *filter.Used)
	}
	if filter.From != nil {
		db = db.Where("issued_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("issued_at < ?", *filter.To)
	}
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}

	err := db.Order("issued_at ASC, code ASC").Find(&codes).Error
	return codes, err
}
