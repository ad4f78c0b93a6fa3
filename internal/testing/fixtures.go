package testing

import (
	"github.com/google/uuid"

	"github.com/aristath/rebalancer/internal/modules/protocols"
)

// NewStableLendingFixture returns a valid stable lending descriptor
func NewStableLendingFixture() protocols.StableLending {
	return protocols.StableLending{
		PoolID:         uuid.New(),
		ReserveAddress: uuid.New(),
		UtilizationBps: 7500,
	}
}

// NewYieldFarmingFixture returns a valid yield farming descriptor with a 0.3% fee tier
func NewYieldFarmingFixture() protocols.YieldFarming {
	return protocols.YieldFarming{
		PairID:           uuid.New(),
		TokenAMint:       uuid.New(),
		TokenBMint:       uuid.New(),
		FeeTierBps:       30,
		RewardMultiplier: 3,
	}
}

// NewLiquidStakingFixture returns a valid liquid staking descriptor with 5% commission
func NewLiquidStakingFixture() protocols.LiquidStaking {
	return protocols.LiquidStaking{
		ValidatorID:        uuid.New(),
		StakePool:          uuid.New(),
		UnstakeDelayEpochs: 2,
		CommissionBps:      500,
	}
}

// PerformanceFixture is a (yield, volatility, balance) tuple with a known ordering
type PerformanceFixture struct {
	YieldRateBps  uint32
	VolatilityBps uint16
	Balance       uint64
}

// NewDescendingPerformanceFixtures returns three tuples that score strictly
// descending in the order given
func NewDescendingPerformanceFixtures() []PerformanceFixture {
	return []PerformanceFixture{
		{YieldRateBps: 15000, VolatilityBps: 2000, Balance: 5_000_000_000},
		{YieldRateBps: 10000, VolatilityBps: 5000, Balance: 2_000_000_000},
		{YieldRateBps: 3000, VolatilityBps: 8000, Balance: 1_000_000_000},
	}
}
