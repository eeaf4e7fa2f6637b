package wheel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"bonus-wheel/config"
)

// ErrCodeSpaceExhausted 连续多次生成的兑换码均已存在
var ErrCodeSpaceExhausted = errors.New("兑换码生成重试次数已用尽")

// ExistsFunc 检查兑换码是否已发放
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator 兑换码生成器
// 字符由 nanoid 基于 crypto/rand 从固定字母表中抽取，兑换码同时充当不可猜测的领奖凭证
type Generator struct {
	alphabet    string
	length      int
	maxAttempts int
	draw        func(alphabet string, size int) (string, error)
}

// NewGenerator 创建兑换码生成器
func NewGenerator(cfg *config.WheelConfig) *Generator {
	return &Generator{
		alphabet:    cfg.CodeAlphabet,
		length:      cfg.CodeLength,
		maxAttempts: cfg.MaxCodeAttempts,
		draw:        gonanoid.Generate,
	}
}

// Generate 生成一个未被占用的兑换码
// exists 返回 true 时丢弃候选码重新生成；exists 出错时立即返回该错误
func (g *Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate, err := g.draw(g.alphabet, g.length)
		if err != nil {
			return "", fmt.Errorf("生成兑换码失败: %w", err)
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", ErrCodeSpaceExhausted
}

// Valid 判断字符串是否符合兑换码格式（长度与字母表）
// 用于在查询数据库前拦截明显无效的输入
func (g *Generator) Valid(code string) bool {
	if utf8.RuneCountInString(code) != g.length {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(g.alphabet, r) {
			return false
		}
	}
	return true
}
