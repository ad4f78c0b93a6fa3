package scoring

import "github.com/aristath/rebalancer/pkg/fixedpoint"

// Dynamic threshold bounds, in percent of ranked strategies.
const (
	MinDynamicThreshold = 10
	MaxDynamicThreshold = 40

	volatilityAdjustmentFactor = 20
)

// DynamicThreshold returns clamp(base + avgVolatility*20/10000, 10, 40).
func DynamicThreshold(base uint8, avgVolatilityBps uint64) uint8 {
	adjustment, err := fixedpoint.MulDiv(avgVolatilityBps, volatilityAdjustmentFactor, fixedpoint.BPS)
	if err != nil {
		return MaxDynamicThreshold
	}
	raw, err := fixedpoint.Add(uint64(base), adjustment)
	if err != nil {
		return MaxDynamicThreshold
	}
	return uint8(fixedpoint.Clamp(raw, MinDynamicThreshold, MaxDynamicThreshold))
}

// AverageVolatility is the integer mean of the given volatility scores, 0 when empty.
func AverageVolatility(volatilities []uint16) uint64 {
	if len(volatilities) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range volatilities {
		sum += uint64(v)
	}
	return sum / uint64(len(volatilities))
}
