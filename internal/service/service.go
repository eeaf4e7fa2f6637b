package service

import (
	"go.uber.org/zap"

	"bonus-wheel/config"
	"bonus-wheel/internal/repository"
	"bonus-wheel/internal/wheel"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Wheel  WheelService
	Prize  PrizeService
	Export ExportService
}

// NewService 创建 Service 聚合
// cache 与 notifier 可为 nil（Redis / Telegram 未配置时降级）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache Cache,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		Wheel:  NewWheelService(cfg, repo, wheel.NewSelector(), cache, notifier, logger),
		Prize:  NewPrizeService(repo, cache, logger),
		Export: NewExportService(repo, logger),
	}
}
