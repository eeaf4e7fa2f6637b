package wheel

import (
	"github.com/shopspring/decimal"

	"bonus-wheel/config"
	"bonus-wheel/internal/model"
)

func prize(id string, weight string, active bool) model.Prize {
	return model.Prize{
		PrizeID:  id,
		Name:     "prize " + id,
		Weight:   decimal.RequireFromString(weight),
		IsActive: active,
	}
}

func testWheelConfig() *config.WheelConfig {
	return &config.WheelConfig{
		CodeLength:       16,
		CodeAlphabet:     "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz",
		MaxCodeAttempts:  10,
		MaxIssueAttempts: 3,
	}
}

// fixedRandom 依次返回 values 中的值
func fixedRandom(values ...int64) RandomFunc {
	i := 0
	return func(max int64) (int64, error) {
		v := values[i%len(values)]
		i++
		return v, nil
	}
}
