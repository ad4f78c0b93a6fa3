package protocols

import (
	"errors"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/pkg/fixedpoint"
)

const (
	// YieldFarmingSlippageBps is charged on top of the pool fee tier.
	YieldFarmingSlippageBps uint64 = 30
	// UnstakePenaltyBpsPerEpoch is charged per epoch of unstake delay.
	UnstakePenaltyBpsPerEpoch uint64 = 5
)

// Withdrawal is the outcome of removing capital from one position.
// Gross leaves the position, Fee is lost to the protocol and Net is realised.
type Withdrawal struct {
	Gross     uint64 `json:"gross"`
	Fee       uint64 `json:"fee"`
	Net       uint64 `json:"net"`
	Remaining uint64 `json:"remaining"`
	// Pool sides left after a yield farming withdrawal
	RemainingA uint64 `json:"remaining_a,omitempty"`
	RemainingB uint64 `json:"remaining_b,omitempty"`
}

// Withdraw computes the withdrawal of fractionBps of balance from a position
// in p. Nothing is mutated.
func Withdraw(p Protocol, balance, fractionBps uint64) (Withdrawal, error) {
	if fractionBps == 0 || fractionBps > fixedpoint.BPS {
		return Withdrawal{}, domain.ErrInvalidFraction
	}

	switch v := p.(type) {
	case StableLending:
		gross, err := fixedpoint.MulDiv(balance, fractionBps, fixedpoint.BPS)
		if err != nil {
			return Withdrawal{}, mapArithmetic(err)
		}
		return Withdrawal{Gross: gross, Net: gross, Remaining: balance - gross}, nil
	case YieldFarming:
		w, err := withdrawFromPool(v, balance, fractionBps)
		if err != nil {
			return Withdrawal{}, mapArithmetic(err)
		}
		return w, nil
	case LiquidStaking:
		gross, fee, err := withdrawStake(v, balance, fractionBps)
		if err != nil {
			return Withdrawal{}, mapArithmetic(err)
		}
		return Withdrawal{Gross: gross, Fee: fee, Net: gross - fee, Remaining: balance - gross}, nil
	default:
		return Withdrawal{}, domain.ErrUnknownProtocol
	}
}

// withdrawFromPool treats the position as two pool sides of balance/2 and
// balance-balance/2 and removes floor(f * side) from each. A position that
// keeps a balance must keep a positive constant product.
func withdrawFromPool(v YieldFarming, balance, fractionBps uint64) (Withdrawal, error) {
	sideA := balance / 2
	sideB := balance - sideA

	outA, err := fixedpoint.MulDiv(sideA, fractionBps, fixedpoint.BPS)
	if err != nil {
		return Withdrawal{}, err
	}
	outB, err := fixedpoint.MulDiv(sideB, fractionBps, fixedpoint.BPS)
	if err != nil {
		return Withdrawal{}, err
	}
	remA, err := fixedpoint.Sub(sideA, outA)
	if err != nil {
		return Withdrawal{}, domain.ErrInvariantViolation
	}
	remB, err := fixedpoint.Sub(sideB, outB)
	if err != nil {
		return Withdrawal{}, domain.ErrInvariantViolation
	}
	if remA+remB > 0 && fixedpoint.Product(remA, remB).IsZero() {
		return Withdrawal{}, domain.ErrInvariantViolation
	}

	w := Withdrawal{
		Gross:      outA + outB,
		Remaining:  remA + remB,
		RemainingA: remA,
		RemainingB: remB,
	}
	if w.Gross > 0 {
		fee, err := fixedpoint.MulDivCeil(w.Gross, uint64(v.FeeTierBps)+YieldFarmingSlippageBps, fixedpoint.BPS)
		if err != nil {
			return Withdrawal{}, err
		}
		w.Fee = fixedpoint.Min(fee, w.Gross)
	}
	w.Net = w.Gross - w.Fee
	return w, nil
}

func withdrawStake(v LiquidStaking, balance, fractionBps uint64) (gross, fee uint64, err error) {
	gross, err = fixedpoint.MulDiv(balance, fractionBps, fixedpoint.BPS)
	if err != nil || gross == 0 {
		return gross, 0, err
	}

	commission, err := fixedpoint.MulDivCeil(gross, uint64(v.CommissionBps), fixedpoint.BPS)
	if err != nil {
		return 0, 0, err
	}
	delayPenalty, err := fixedpoint.MulDiv(gross, uint64(v.UnstakeDelayEpochs)*UnstakePenaltyBpsPerEpoch, fixedpoint.BPS)
	if err != nil {
		return 0, 0, err
	}
	penalty, err := fixedpoint.Add(commission, delayPenalty)
	if err != nil {
		return 0, 0, err
	}
	return gross, fixedpoint.Min(penalty, gross), nil
}

func mapArithmetic(err error) error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return err
	}
	return domain.ErrMathOverflow
}
