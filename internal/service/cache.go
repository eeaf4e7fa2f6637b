package service

import (
	"context"
	"time"
)

// segmentsCacheKey 转盘扇区展示缓存
const segmentsCacheKey = "wheel:segments"

// Cache 展示数据缓存，由 pkg/redis.Client 实现
// 缓存仅服务于展示接口，抽奖始终读取数据库中的奖品目录
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Notifier 核销成功后的外部通知，由 pkg/telegram.Telegram 实现
type Notifier interface {
	SendText(ctx context.Context, text string) error
}
