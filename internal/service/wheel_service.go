package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bonus-wheel/config"
	"bonus-wheel/internal/dto"
	"bonus-wheel/internal/model"
	"bonus-wheel/internal/repository"
	"bonus-wheel/internal/wheel"
	pkgerrors "bonus-wheel/pkg/errors"
)

// ── 转盘模块业务错误 ──

var (
	ErrNoEligiblePrizes   = wheel.ErrNoEligiblePrizes
	ErrStorageUnavailable = errors.New("存储服务暂不可用")
	ErrCodeNotFound       = errors.New("兑换码不存在")
	ErrCodeIssueExhausted = errors.New("兑换码发放重试次数已用尽")
)

// WheelService 转盘业务接口
type WheelService interface {
	// Spin 抽取奖品并发放兑换码；ownerRef 为空表示匿名抽奖
	Spin(ctx context.Context, ownerRef *string) (*dto.SpinResponse, error)
	// Segments 返回转盘展示用的扇区列表
	Segments(ctx context.Context) ([]dto.SegmentResponse, error)
	// Redeem 核销兑换码；error 仅表示存储故障，业务结果由 RedeemResult.Status 区分
	Redeem(ctx context.Context, code, redeemedBy string) (*dto.RedeemResult, error)
	Lookup(ctx context.Context, code string) (*dto.CodeResponse, error)
}

type wheelService struct {
	repo      *repository.Repository
	selector  *wheel.Selector
	generator *wheel.Generator
	linker    *wheel.ClaimLinker
	cache     Cache
	notifier  Notifier
	cfg       *config.WheelConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewWheelService 创建 WheelService 实例
// cache / notifier 可为 nil，分别表示不缓存展示数据、不发送核销通知
func NewWheelService(
	cfg *config.Config,
	repo *repository.Repository,
	selector *wheel.Selector,
	cache Cache,
	notifier Notifier,
	logger *zap.Logger,
) WheelService {
	return &wheelService{
		repo:      repo,
		selector:  selector,
		generator: wheel.NewGenerator(&cfg.Wheel),
		linker:    wheel.NewClaimLinker(&cfg.Claim),
		cache:     cache,
		notifier:  notifier,
		cfg:       &cfg.Wheel,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ═══════════════════════════════════════════════════════════
// Spin — 抽奖
// ═══════════════════════════════════════════════════════════
//
// 流程：读取启用奖品 → 按权重抽取 → 生成未占用兑换码 → 写入台账 → 生成领奖链接
// 任一步失败都不会留下台账记录；写入时遇到唯一索引冲突则重新生成兑换码

func (s *wheelService) Spin(ctx context.Context, ownerRef *string) (*dto.SpinResponse, error) {
	// 1. 读取奖品目录（不走缓存）
	prizes, err := s.repo.Prize.ListActive(ctx)
	if err != nil {
		s.logger.Error("读取奖品目录失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	// 2. 按权重抽取
	idx, err := s.selector.Select(prizes)
	if err != nil {
		if errors.Is(err, wheel.ErrNoEligiblePrizes) {
			s.logger.Warn("没有可抽取的奖品", zap.Int("active", len(prizes)))
			return nil, ErrNoEligiblePrizes
		}
		s.logger.Error("抽取奖品失败", zap.Error(err))
		return nil, err
	}
	prize := prizes[idx]
	s.logger.Debug("奖品已抽中", zap.String("prize_id", prize.PrizeID), zap.Int("segment", idx))

	// 3-4. 生成兑换码并写入台账
	issued, err := s.issue(ctx, &prize, ownerRef)
	if err != nil {
		return nil, err
	}

	// 5. 领奖链接
	return &dto.SpinResponse{
		Prize:        snapshotOf(issued),
		SegmentIndex: idx,
		Code:         issued.Code,
		ClaimLink:    s.linker.Link(issued.Code),
		IssuedAt:     issued.IssuedAt,
	}, nil
}

func (s *wheelService) issue(ctx context.Context, prize *model.Prize, ownerRef *string) (*model.IssuedCode, error) {
	for attempt := 1; attempt <= s.cfg.MaxIssueAttempts; attempt++ {
		code, err := s.generator.Generate(ctx, s.repo.IssuedCode.Exists)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			if errors.Is(err, wheel.ErrCodeSpaceExhausted) {
				s.logger.Error("兑换码生成重试次数已用尽", zap.Int("max_code_attempts", s.cfg.MaxCodeAttempts))
				return nil, err
			}
			s.logger.Error("检查兑换码失败", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}

		issued := &model.IssuedCode{
			Code:        code,
			PrizeID:     prize.PrizeID,
			PrizeName:   prize.Name,
			PrizeAmount: prize.Amount,
			OwnerRef:    ownerRef,
			IssuedAt:    s.now(),
		}

		err = s.repo.IssuedCode.Create(ctx, issued)
		if err == nil {
			s.logger.Debug("兑换码已发放", zap.String("prize_id", prize.PrizeID), zap.Int("attempt", attempt))
			return issued, nil
		}
		if errors.Is(err, pkgerrors.ErrDuplicateCode) {
			s.logger.Warn("兑换码写入冲突，重新生成", zap.Int("attempt", attempt))
			continue
		}
		s.logger.Error("写入兑换码失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return nil, ErrCodeIssueExhausted
}

// ═══════════════════════════════════════════════════════════
// Segments — 转盘展示
// ═══════════════════════════════════════════════════════════

func (s *wheelService) Segments(ctx context.Context) ([]dto.SegmentResponse, error) {
	if s.cache != nil {
		var cached []dto.SegmentResponse
		if err := s.cache.GetJSON(ctx, segmentsCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	prizes, err := s.repo.Prize.ListActive(ctx)
	if err != nil {
		s.logger.Error("读取奖品目录失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	chances := wheel.ChancePercents(prizes)
	result := make([]dto.SegmentResponse, 0, len(prizes))
	for i := range prizes {
		result = append(result, dto.SegmentResponse{
			ID:            prizes[i].PrizeID,
			Name:          prizes[i].Name,
			Amount:        prizes[i].Amount,
			ChancePercent: chances[i],
		})
	}

	if s.cache != nil && s.cfg.SegmentsCacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, segmentsCacheKey, result, s.cfg.SegmentsCacheTTL); err != nil {
			s.logger.Warn("写入扇区缓存失败", zap.Error(err))
		}
	}

	return result, nil
}

// ═══════════════════════════════════════════════════════════
// Redeem — 核销
// ═══════════════════════════════════════════════════════════
//
// 唯一性由 MarkUsed 的条件更新保证：并发核销同一兑换码时只有一个调用返回 redeemed。
// 先查询只是为了区分 not_found / already_used，不参与并发判定。

func (s *wheelService) Redeem(ctx context.Context, code, redeemedBy string) (*dto.RedeemResult, error) {
	code = strings.TrimSpace(code)
	notFound := &dto.RedeemResult{Status: dto.RedeemStatusNotFound, Code: code}

	if !s.generator.Valid(code) {
		return notFound, nil
	}

	issued, err := s.repo.IssuedCode.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound, nil
		}
		s.logger.Error("查询兑换码失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if issued.Used {
		return alreadyUsed(issued), nil
	}

	at := s.now()
	ok, err := s.repo.IssuedCode.MarkUsed(ctx, code, redeemedBy, at)
	if err != nil {
		s.logger.Error("核销兑换码失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !ok {
		// 查询与更新之间被其他请求抢先核销
		latest, err := s.repo.IssuedCode.GetByCode(ctx, code)
		if err != nil {
			s.logger.Error("查询兑换码失败", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		return alreadyUsed(latest), nil
	}

	issued.Used = true
	issued.UsedAt = &at
	issued.RedeemedBy = &redeemedBy
	s.logger.Info("兑换码已核销",
		zap.String("prize_id", issued.PrizeID),
		zap.String("redeemed_by", redeemedBy),
	)
	s.notifyRedeemed(ctx, issued)

	prize := snapshotOf(issued)
	return &dto.RedeemResult{
		Status:     dto.RedeemStatusRedeemed,
		Code:       code,
		Prize:      &prize,
		UsedAt:     &at,
		RedeemedBy: redeemedBy,
	}, nil
}

func (s *wheelService) notifyRedeemed(ctx context.Context, issued *model.IssuedCode) {
	if s.notifier == nil {
		return
	}
	text := fmt.Sprintf("🎁 兑换码 %s 已核销\n奖品：%s（%s）\n领取人：%s",
		issued.Code, issued.PrizeName, issued.PrizeAmount.StringFixed(2), deref(issued.RedeemedBy))
	if err := s.notifier.SendText(ctx, text); err != nil {
		s.logger.Warn("发送核销通知失败", zap.Error(err))
	}
}

// ═══════════════════════════════════════════════════════════
// Lookup — 查询兑换码
// ═══════════════════════════════════════════════════════════

func (s *wheelService) Lookup(ctx context.Context, code string) (*dto.CodeResponse, error) {
	code = strings.TrimSpace(code)
	if !s.generator.Valid(code) {
		return nil, ErrCodeNotFound
	}

	issued, err := s.repo.IssuedCode.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		s.logger.Error("查询兑换码失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return &dto.CodeResponse{
		Code:       issued.Code,
		Prize:      snapshotOf(issued),
		OwnerRef:   deref(issued.OwnerRef),
		IssuedAt:   issued.IssuedAt,
		Used:       issued.Used,
		UsedAt:     issued.UsedAt,
		RedeemedBy: deref(issued.RedeemedBy),
	}, nil
}

// ── 内部辅助方法 ──

func snapshotOf(issued *model.IssuedCode) dto.PrizeSnapshot {
	return dto.PrizeSnapshot{
		ID:     issued.PrizeID,
		Name:   issued.PrizeName,
		Amount: issued.PrizeAmount,
	}
}

func alreadyUsed(issued *model.IssuedCode) *dto.RedeemResult {
	prize := snapshotOf(issued)
	return &dto.RedeemResult{
		Status:     dto.RedeemStatusAlreadyUsed,
		Code:       issued.Code,
		Prize:      &prize,
		UsedAt:     issued.UsedAt,
		RedeemedBy: deref(issued.RedeemedBy),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
