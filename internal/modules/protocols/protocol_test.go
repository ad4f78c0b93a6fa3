package protocols

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/domain"
)

func validStableLending() StableLending {
	return StableLending{PoolID: uuid.New(), ReserveAddress: uuid.New(), UtilizationBps: 8000}
}

func validYieldFarming() YieldFarming {
	return YieldFarming{
		PairID:           uuid.New(),
		TokenAMint:       uuid.New(),
		TokenBMint:       uuid.New(),
		FeeTierBps:       30,
		RewardMultiplier: 2,
	}
}

func validLiquidStaking() LiquidStaking {
	return LiquidStaking{ValidatorID: uuid.New(), StakePool: uuid.New(), UnstakeDelayEpochs: 2, CommissionBps: 500}
}

func TestValidate(t *testing.T) {
	mint := uuid.New()

	tests := []struct {
		name     string
		protocol func() Protocol
		expected error
	}{
		{"valid stable lending", func() Protocol { return validStableLending() }, nil},
		{"zero pool id", func() Protocol {
			p := validStableLending()
			p.PoolID = uuid.Nil
			return p
		}, domain.ErrInvalidPoolID},
		{"zero reserve", func() Protocol {
			p := validStableLending()
			p.ReserveAddress = uuid.Nil
			return p
		}, domain.ErrInvalidReserveAddress},
		{"utilization above 100%", func() Protocol {
			p := validStableLending()
			p.UtilizationBps = 10001
			return p
		}, domain.ErrInvalidUtilization},
		{"valid yield farming", func() Protocol { return validYieldFarming() }, nil},
		{"identical mints", func() Protocol {
			p := validYieldFarming()
			p.TokenAMint, p.TokenBMint = mint, mint
			return p
		}, domain.ErrTokenMintsIdentical},
		{"identical mints reported before other errors", func() Protocol {
			return YieldFarming{TokenAMint: mint, TokenBMint: mint, FeeTierBps: 5000}
		}, domain.ErrTokenMintsIdentical},
		{"zero pair id", func() Protocol {
			p := validYieldFarming()
			p.PairID = uuid.Nil
			return p
		}, domain.ErrInvalidPairID},
		{"zero mint", func() Protocol {
			p := validYieldFarming()
			p.TokenBMint = uuid.Nil
			return p
		}, domain.ErrInvalidTokenMint},
		{"multiplier zero", func() Protocol {
			p := validYieldFarming()
			p.RewardMultiplier = 0
			return p
		}, domain.ErrInvalidRewardMultiplier},
		{"multiplier eleven", func() Protocol {
			p := validYieldFarming()
			p.RewardMultiplier = 11
			return p
		}, domain.ErrInvalidRewardMultiplier},
		{"fee tier too high", func() Protocol {
			p := validYieldFarming()
			p.FeeTierBps = 1001
			return p
		}, domain.ErrInvalidFeeTier},
		{"valid liquid staking", func() Protocol { return validLiquidStaking() }, nil},
		{"zero validator", func() Protocol {
			p := validLiquidStaking()
			p.ValidatorID = uuid.Nil
			return p
		}, domain.ErrInvalidValidatorID},
		{"zero stake pool", func() Protocol {
			p := validLiquidStaking()
			p.StakePool = uuid.Nil
			return p
		}, domain.ErrInvalidStakePool},
		{"commission above 10%", func() Protocol {
			p := validLiquidStaking()
			p.CommissionBps = 1001
			return p
		}, domain.ErrInvalidCommissionRate},
		{"commission exactly 10%", func() Protocol {
			p := validLiquidStaking()
			p.CommissionBps = 1000
			return p
		}, nil},
		{"unstake delay too long", func() Protocol {
			p := validLiquidStaking()
			p.UnstakeDelayEpochs = 51
			return p
		}, domain.ErrInvalidUnstakeDelay},
		{"nil protocol", func() Protocol { return nil }, domain.ErrUnknownProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.protocol())
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCheckMinimumBalance(t *testing.T) {
	tests := []struct {
		name     string
		protocol Protocol
		minimum  uint64
	}{
		{"stable lending", validStableLending(), 100_000_000},
		{"yield farming", validYieldFarming(), 500_000_000},
		{"liquid staking", validLiquidStaking(), 1_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, err := MinimumBalance(tt.protocol)
			require.NoError(t, err)
			assert.Equal(t, tt.minimum, min)

			assert.NoError(t, CheckMinimumBalance(tt.protocol, tt.minimum))
			assert.ErrorIs(t, CheckMinimumBalance(tt.protocol, tt.minimum-1), domain.ErrInsufficientBalance)
		})
	}
}

func TestNameAndExpectedTokens(t *testing.T) {
	sl := validStableLending()
	yf := validYieldFarming()
	ls := validLiquidStaking()

	assert.Equal(t, "Stable Lending", Name(sl))
	assert.Equal(t, "Yield Farming", Name(yf))
	assert.Equal(t, "Liquid Staking", Name(ls))

	assert.Equal(t, []domain.Identity{sl.ReserveAddress}, ExpectedTokens(sl))
	assert.Equal(t, []domain.Identity{yf.TokenAMint, yf.TokenBMint}, ExpectedTokens(yf))
	assert.Equal(t, []domain.Identity{ls.StakePool}, ExpectedTokens(ls))
}
