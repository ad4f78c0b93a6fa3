// Package scoring maps strategy metrics to performance scores and derives the
// volatility-adjusted rebalance threshold.
package scoring

import (
	"github.com/aristath/rebalancer/pkg/fixedpoint"
)

const (
	// MaxScore is the top of the basis-point score scale.
	MaxScore = 10000
	// MaxYieldRateBps is the highest accepted yield rate (500%).
	MaxYieldRateBps = 50000
	// MaxVolatilityBps is the highest accepted volatility score.
	MaxVolatilityBps = 10000
	// HighBalanceReference is the balance at which the balance component saturates.
	HighBalanceReference uint64 = 10_000_000_000

	yieldWeight      = 45
	balanceWeight    = 35
	volatilityWeight = 20
)

// Metrics are the scoring inputs of one strategy.
type Metrics struct {
	YieldRateBps  uint32
	VolatilityBps uint16
	Balance       uint64
}

// PerformanceScore is a score with its normalized components.
type PerformanceScore struct {
	Score             uint16 `json:"score"`
	NormalizedYield   uint64 `json:"normalized_yield"`
	NormalizedBalance uint64 `json:"normalized_balance"`
	InverseVolatility uint64 `json:"inverse_volatility"`
}

// Calculate scores m. Weights: 45% yield, 35% balance, 20% inverse volatility.
// Out-of-range inputs saturate so the result always lies in [0, MaxScore].
func Calculate(m Metrics) PerformanceScore {
	normalizedYield := fixedpoint.Min(MaxScore, uint64(m.YieldRateBps)*MaxScore/MaxYieldRateBps)
	normalizedBalance := normalizeBalance(m.Balance)
	inverseVolatility := fixedpoint.SaturatingSub(MaxScore, uint64(m.VolatilityBps))

	weighted := normalizedYield*yieldWeight +
		normalizedBalance*balanceWeight +
		inverseVolatility*volatilityWeight

	return PerformanceScore{
		Score:             uint16((weighted + 50) / 100),
		NormalizedYield:   normalizedYield,
		NormalizedBalance: normalizedBalance,
		InverseVolatility: inverseVolatility,
	}
}

// Score returns only the composite score of m.
func Score(m Metrics) uint16 {
	return Calculate(m).Score
}

func normalizeBalance(balance uint64) uint64 {
	if balance >= HighBalanceReference {
		return MaxScore
	}
	scaled, err := fixedpoint.MulDiv(balance, MaxScore, HighBalanceReference)
	if err != nil {
		return MaxScore
	}
	return fixedpoint.Min(MaxScore, scaled)
}
