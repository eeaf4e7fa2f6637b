package wheel

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"bonus-wheel/internal/model"
)

var (
	ErrNoEligiblePrizes = errors.New("没有可抽取的奖品")
	ErrInvalidWeight    = errors.New("奖品权重无效")

	errInvalidRandom = errors.New("随机数超出范围")
)

// WeightScale 权重精度：小数点后 4 位，换算为整数单位后参与抽取
const WeightScale = 4

// RandomFunc 返回 [0, max) 内均匀分布的随机整数
type RandomFunc func(max int64) (int64, error)

// Selector 按权重抽取奖品
// 权重先换算为 int64 整数单位再累加，避免浮点累加误差导致落空
type Selector struct {
	randInt RandomFunc
}

// NewSelector 使用 crypto/rand 作为随机源
func NewSelector() *Selector {
	return &Selector{randInt: secureRandomInt}
}

// NewSelectorWithRandom 使用指定随机源（测试用）
func NewSelectorWithRandom(fn RandomFunc) *Selector {
	return &Selector{randInt: fn}
}

// Select 返回被抽中奖品在 prizes 中的下标
//
// 算法：total = 启用奖品权重单位之和；r ∈ [0,total)；
// 从 r+1 开始按顺序减去各奖品权重，第一个使余量 ≤ 0 的奖品命中。
// 停用奖品与零权重奖品不参与累加，永远不会被抽中。
func (s *Selector) Select(prizes []model.Prize) (int, error) {
	units := make([]int64, len(prizes))
	var total int64

	for i := range prizes {
		if !prizes[i].IsActive {
			continue
		}
		u, err := WeightUnits(prizes[i].Weight)
		if err != nil {
			return -1, fmt.Errorf("%w: prize=%s", err, prizes[i].PrizeID)
		}
		if u > math.MaxInt64-total {
			return -1, fmt.Errorf("%w: 权重总和溢出", ErrInvalidWeight)
		}
		units[i] = u
		total += u
	}

	if total <= 0 {
		return -1, ErrNoEligiblePrizes
	}

	r, err := s.randInt(total)
	if err != nil {
		return -1, fmt.Errorf("生成随机数失败: %w", err)
	}
	if r < 0 || r >= total {
		return -1, errInvalidRandom
	}

	remaining := r + 1
	for i, u := range units {
		if u == 0 {
			continue
		}
		remaining -= u
		if remaining <= 0 {
			return i, nil
		}
	}

	// total > 0 且 r < total 时不可达
	return -1, errInvalidRandom
}

// WeightUnits 将十进制权重换算为整数单位（×10^WeightScale）
// 负数、超过 4 位小数的权重视为无效
func WeightUnits(w decimal.Decimal) (int64, error) {
	if w.IsNegative() {
		return 0, ErrInvalidWeight
	}
	scaled := w.Shift(WeightScale)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, ErrInvalidWeight
	}
	if scaled.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrInvalidWeight
	}
	return scaled.IntPart(), nil
}

// ChancePercents 计算各奖品的展示概率（百分比，保留 2 位小数）
// 仅用于展示，抽取始终以权重为准
func ChancePercents(prizes []model.Prize) []decimal.Decimal {
	result := make([]decimal.Decimal, len(prizes))
	total := decimal.Zero
	for i := range prizes {
		if prizes[i].IsActive && prizes[i].Weight.IsPositive() {
			total = total.Add(prizes[i].Weight)
		}
	}
	for i := range prizes {
		if total.IsZero() || !prizes[i].IsActive || !prizes[i].Weight.IsPositive() {
			result[i] = decimal.Zero
			continue
		}
		result[i] = prizes[i].Weight.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return result
}

func secureRandomInt(max int64) (int64, error) {
	if max <= 0 {
		return 0, errInvalidRandom
	}

	n, err := crand.Int(crand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}
