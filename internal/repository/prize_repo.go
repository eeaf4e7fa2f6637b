package repository

import (
	"context"

	"gorm.io/gorm"

	"bonus-wheel/internal/model"
)

// PrizeRepository 奖品目录数据访问接口
type PrizeRepository interface {
	Create(ctx context.Context, prize *model.Prize) error
	GetByID(ctx context.Context, id string) (*model.Prize, error)
	// ListActive 返回所有启用奖品，顺序稳定：display_order, created_at, prize_id
	ListActive(ctx context.Context) ([]model.Prize, error)
	List(ctx context.Context, includeInactive bool) ([]model.Prize, error)
	Update(ctx context.Context, prize *model.Prize) error
}

type prizeRepo struct {
	db *gorm.DB
}

// NewPrizeRepo 创建 PrizeRepository 实例
func NewPrizeRepo(db *gorm.DB) PrizeRepository {
	return &prizeRepo{db: db}
}

const prizeOrder = "display_order ASC, created_at ASC, prize_id ASC"

// Create 写入奖品；is_active 列带数据库默认值，GORM 会跳过 false，需在同一事务内补写
func (r *prizeRepo) Create(ctx context.Context, prize *model.Prize) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(prize).Error; err != nil {
			return err
		}
		if prize.IsActive {
			return nil
		}
		return tx.Model(prize).Update("is_active", false).Error
	})
}

func (r *prizeRepo) GetByID(ctx context.Context, id string) (*model.Prize, error) {
	var prize model.Prize
	err := r.db.WithContext(ctx).
		Where("prize_id = ?", id).
		First(&prize).Error
	if err != nil {
		return nil, err
	}
	return &prize, nil
}

func (r *prizeRepo) ListActive(ctx context.Context) ([]model.Prize, error) {
	return r.List(ctx, false)
}

func (r *prizeRepo) List(ctx context.Context, includeInactive bool) ([]model.Prize, error) {
	var prizes []model.Prize
	db := r.db.WithContext(ctx)

	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}

	err := db.Order(prizeOrder).Find(&prizes).Error
	return prizes, err
}

// Update 全量保存奖品字段；已发放兑换码持有自己的快照，不受影响
func (r *prizeRepo) Update(ctx context.Context, prize *model.Prize) error {
	return r.db.WithContext(ctx).Save(prize).Error
}
