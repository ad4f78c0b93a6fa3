// Package protocols describes the closed set of yield protocols a strategy
// can be deployed into, with their registration rules and withdrawal math.
package protocols

import (
	"github.com/aristath/rebalancer/internal/domain"
)

// Type is the protocol discriminator.
type Type string

const (
	TypeStableLending Type = "stable_lending"
	TypeYieldFarming  Type = "yield_farming"
	TypeLiquidStaking Type = "liquid_staking"
)

// Minimum initial balances in native units.
const (
	MinStableLendingBalance uint64 = 100_000_000
	MinYieldFarmingBalance  uint64 = 500_000_000
	MinLiquidStakingBalance uint64 = 1_000_000_000
)

// Registration limits
const (
	MaxUtilizationBps   = 10000
	MaxFeeTierBps       = 1000
	MaxCommissionBps    = 1000
	MaxUnstakeDelay     = 50
	MinRewardMultiplier = 1
	MaxRewardMultiplier = 10
)

// Protocol is implemented only by StableLending, YieldFarming and
// LiquidStaking. Every switch over it must handle all three.
type Protocol interface {
	Type() Type
	isProtocol()
}

// StableLending is a single-asset lending pool position.
type StableLending struct {
	PoolID         domain.Identity `json:"pool_id" msgpack:"pool_id"`
	ReserveAddress domain.Identity `json:"reserve_address" msgpack:"reserve_address"`
	UtilizationBps uint16          `json:"utilization_bps" msgpack:"utilization_bps"`
}

// YieldFarming is a two-sided constant-product liquidity position.
type YieldFarming struct {
	PairID           domain.Identity `json:"pair_id" msgpack:"pair_id"`
	TokenAMint       domain.Identity `json:"token_a_mint" msgpack:"token_a_mint"`
	TokenBMint       domain.Identity `json:"token_b_mint" msgpack:"token_b_mint"`
	FeeTierBps       uint16          `json:"fee_tier_bps" msgpack:"fee_tier_bps"`
	RewardMultiplier uint8           `json:"reward_multiplier" msgpack:"reward_multiplier"`
}

// LiquidStaking is a delegated stake position.
type LiquidStaking struct {
	ValidatorID        domain.Identity `json:"validator_id" msgpack:"validator_id"`
	StakePool          domain.Identity `json:"stake_pool" msgpack:"stake_pool"`
	UnstakeDelayEpochs uint32          `json:"unstake_delay_epochs" msgpack:"unstake_delay_epochs"`
	CommissionBps      uint16          `json:"commission_bps" msgpack:"commission_bps"`
}

func (StableLending) Type() Type { return TypeStableLending }
func (YieldFarming) Type() Type  { return TypeYieldFarming }
func (LiquidStaking) Type() Type { return TypeLiquidStaking }

func (StableLending) isProtocol() {}
func (YieldFarming) isProtocol()  {}
func (LiquidStaking) isProtocol() {}

// Validate checks the registration rules of p.
func Validate(p Protocol) error {
	switch v := p.(type) {
	case StableLending:
		if domain.IsZero(v.PoolID) {
			return domain.ErrInvalidPoolID
		}
		if domain.IsZero(v.ReserveAddress) {
			return domain.ErrInvalidReserveAddress
		}
		if v.UtilizationBps > MaxUtilizationBps {
			return domain.ErrInvalidUtilization
		}
		return nil
	case YieldFarming:
		// Identical mints are reported ahead of every other field error.
		if v.TokenAMint == v.TokenBMint {
			return domain.ErrTokenMintsIdentical
		}
		if domain.IsZero(v.PairID) {
			return domain.ErrInvalidPairID
		}
		if domain.IsZero(v.TokenAMint) || domain.IsZero(v.TokenBMint) {
			return domain.ErrInvalidTokenMint
		}
		if v.RewardMultiplier < MinRewardMultiplier || v.RewardMultiplier > MaxRewardMultiplier {
			return domain.ErrInvalidRewardMultiplier
		}
		if v.FeeTierBps > MaxFeeTierBps {
			return domain.ErrInvalidFeeTier
		}
		return nil
	case LiquidStaking:
		if domain.IsZero(v.ValidatorID) {
			return domain.ErrInvalidValidatorID
		}
		if domain.IsZero(v.StakePool) {
			return domain.ErrInvalidStakePool
		}
		if v.CommissionBps > MaxCommissionBps {
			return domain.ErrInvalidCommissionRate
		}
		if v.UnstakeDelayEpochs > MaxUnstakeDelay {
			return domain.ErrInvalidUnstakeDelay
		}
		return nil
	default:
		return domain.ErrUnknownProtocol
	}
}

// MinimumBalance returns the smallest initial balance p accepts.
func MinimumBalance(p Protocol) (uint64, error) {
	switch p.(type) {
	case StableLending:
		return MinStableLendingBalance, nil
	case YieldFarming:
		return MinYieldFarmingBalance, nil
	case LiquidStaking:
		return MinLiquidStakingBalance, nil
	default:
		return 0, domain.ErrUnknownProtocol
	}
}

// CheckMinimumBalance fails with ErrInsufficientBalance below the minimum.
func CheckMinimumBalance(p Protocol, balance uint64) error {
	min, err := MinimumBalance(p)
	if err != nil {
		return err
	}
	if balance < min {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// Name returns the display name of p.
func Name(p Protocol) string {
	switch p.(type) {
	case StableLending:
		return "Stable Lending"
	case YieldFarming:
		return "Yield Farming"
	case LiquidStaking:
		return "Liquid Staking"
	default:
		return "Unknown"
	}
}

// ExpectedTokens lists the token accounts a position in p settles into.
func ExpectedTokens(p Protocol) []domain.Identity {
	switch v := p.(type) {
	case StableLending:
		return []domain.Identity{v.ReserveAddress}
	case YieldFarming:
		return []domain.Identity{v.TokenAMint, v.TokenBMint}
	case LiquidStaking:
		return []domain.Identity{v.StakePool}
	default:
		return nil
	}
}
