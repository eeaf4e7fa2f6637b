package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bonus-wheel/internal/dto"
	"bonus-wheel/internal/model"
	"bonus-wheel/internal/repository"
	"bonus-wheel/internal/wheel"
)

// ── 奖品模块业务错误 ──

var (
	ErrPrizeNotFound = errors.New("奖品不存在")
	ErrInvalidWeight = errors.New("奖品权重必须为非负数且最多 4 位小数")
	ErrInvalidAmount = errors.New("奖品金额必须为非负数且最多 2 位小数")
)

// PrizeService 奖品目录维护接口
// 修改奖品只影响之后的抽奖，已发放兑换码保留发放时的快照
type PrizeService interface {
	Create(ctx context.Context, req *dto.CreatePrizeRequest) (*dto.PrizeResponse, error)
	GetByID(ctx context.Context, id string) (*dto.PrizeResponse, error)
	List(ctx context.Context, req *dto.PrizeListRequest) ([]dto.PrizeResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdatePrizeRequest) (*dto.PrizeResponse, error)
}

type prizeService struct {
	repo   *repository.Repository
	cache  Cache
	logger *zap.Logger
}

// NewPrizeService 创建 PrizeService 实例
func NewPrizeService(repo *repository.Repository, cache Cache, logger *zap.Logger) PrizeService {
	return &prizeService{repo: repo, cache: cache, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *prizeService) Create(ctx context.Context, req *dto.CreatePrizeRequest) (*dto.PrizeResponse, error) {
	if err := validateWeight(*req.Weight); err != nil {
		return nil, err
	}
	if err := validateAmount(*req.Amount); err != nil {
		return nil, err
	}

	prize := &model.Prize{
		Name:         req.Name,
		Amount:       *req.Amount,
		Weight:       *req.Weight,
		DisplayOrder: req.DisplayOrder,
		IsActive:     true,
	}
	if req.IsActive != nil {
		prize.IsActive = *req.IsActive
	}

	if err := s.repo.Prize.Create(ctx, prize); err != nil {
		s.logger.Error("创建奖品失败", zap.Error(err))
		return nil, err
	}
	s.invalidateSegments(ctx)

	return toPrizeResponse(prize), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *prizeService) GetByID(ctx context.Context, id string) (*dto.PrizeResponse, error) {
	prize, err := s.getPrize(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPrizeResponse(prize), nil
}

// ────────────────────── List ──────────────────────

func (s *prizeService) List(ctx context.Context, req *dto.PrizeListRequest) ([]dto.PrizeResponse, error) {
	prizes, err := s.repo.Prize.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("列出奖品失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.PrizeResponse, 0, len(prizes))
	for i := range prizes {
		result = append(result, *toPrizeResponse(&prizes[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *prizeService) Update(ctx context.Context, id string, req *dto.UpdatePrizeRequest) (*dto.PrizeResponse, error) {
	prize, err := s.getPrize(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Weight != nil {
		if err := validateWeight(*req.Weight); err != nil {
			return nil, err
		}
		prize.Weight = *req.Weight
	}
	if req.Amount != nil {
		if err := validateAmount(*req.Amount); err != nil {
			return nil, err
		}
		prize.Amount = *req.Amount
	}
	if req.Name != nil {
		prize.Name = *req.Name
	}
	if req.DisplayOrder != nil {
		prize.DisplayOrder = *req.DisplayOrder
	}
	if req.IsActive != nil {
		prize.IsActive = *req.IsActive
	}

	if err := s.repo.Prize.Update(ctx, prize); err != nil {
		s.logger.Error("更新奖品失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.invalidateSegments(ctx)

	return toPrizeResponse(prize), nil
}

// ── 内部辅助方法 ──

func (s *prizeService) getPrize(ctx context.Context, id string) (*model.Prize, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPrizeNotFound
	}
	prize, err := s.repo.Prize.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrizeNotFound
		}
		s.logger.Error("查询奖品失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return prize, nil
}

func (s *prizeService) invalidateSegments(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, segmentsCacheKey); err != nil {
		s.logger.Warn("清除扇区缓存失败", zap.Error(err))
	}
}

func validateWeight(w decimal.Decimal) error {
	if _, err := wheel.WeightUnits(w); err != nil {
		return ErrInvalidWeight
	}
	return nil
}

func validateAmount(a decimal.Decimal) error {
	if a.IsNegative() || !a.Equal(a.Truncate(2)) {
		return ErrInvalidAmount
	}
	return nil
}

func toPrizeResponse(p *model.Prize) *dto.PrizeResponse {
	return &dto.PrizeResponse{
		ID:           p.PrizeID,
		Name:         p.Name,
		Amount:       p.Amount,
		Weight:       p.Weight,
		DisplayOrder: p.DisplayOrder,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    p.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
