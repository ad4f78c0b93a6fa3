package protocols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/domain"
)

func TestWithdraw_StableLendingIsLinear(t *testing.T) {
	w, err := Withdraw(validStableLending(), 1_000_000_000, 10000)
	require.NoError(t, err)
	assert.Equal(t, Withdrawal{Gross: 1_000_000_000, Fee: 0, Net: 1_000_000_000, Remaining: 0}, w)

	w, err = Withdraw(validStableLending(), 1_000_000_000, 5000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), w.Gross)
	assert.Equal(t, w.Gross, w.Net)
	assert.Equal(t, uint64(500_000_000), w.Remaining)

	w, err = Withdraw(validStableLending(), 100_000_000, 10000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), w.Gross)
	assert.Zero(t, w.Remaining)
}

func TestWithdraw_YieldFarmingChargesFeeTierAndSlippage(t *testing.T) {
	w, err := Withdraw(validYieldFarming(), 1_000_000_000, 10000)
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000_000), w.Gross)
	assert.Equal(t, uint64(6_000_000), w.Fee)
	assert.Equal(t, uint64(994_000_000), w.Net)
	assert.Zero(t, w.Remaining)
}

func TestWithdraw_YieldFarmingTakesFloorOfEachSide(t *testing.T) {
	// sides 500_000_000 and 500_000_001
	w, err := Withdraw(validYieldFarming(), 1_000_000_001, 3333)
	require.NoError(t, err)

	assert.Equal(t, uint64(166_650_000+166_650_000), w.Gross)
	assert.Equal(t, uint64(333_350_000), w.RemainingA)
	assert.Equal(t, uint64(333_350_001), w.RemainingB)
	assert.Equal(t, w.RemainingA+w.RemainingB, w.Remaining)
}

func TestWithdraw_YieldFarmingDeductionAlwaysPositive(t *testing.T) {
	p := validYieldFarming()
	p.FeeTierBps = 0

	w, err := Withdraw(p, 1, 10000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), w.Gross)
	assert.Equal(t, uint64(1), w.Fee)
	assert.Equal(t, uint64(0), w.Net)

	for _, balance := range []uint64{600_000_000, 777_777_777, 5_000_000_001} {
		w, err := Withdraw(p, balance, 3333)
		require.NoError(t, err)
		assert.Greater(t, w.Fee, uint64(0))
		assert.Less(t, w.Net, w.Gross)
	}
}

func TestWithdraw_YieldFarmingKeepsPositiveProduct(t *testing.T) {
	tests := []struct {
		name     string
		balance  uint64
		fraction uint64
		wantErr  error
		want     Withdrawal
	}{
		{"single unit cannot split", 1, 9999, domain.ErrInvariantViolation, Withdrawal{}},
		{"two units keep one each", 2, 9999, nil, Withdrawal{Remaining: 2, RemainingA: 1, RemainingB: 1}},
		{"three units", 3, 9999, nil, Withdrawal{Gross: 1, Fee: 1, Remaining: 2, RemainingA: 1, RemainingB: 1}},
		{"single unit fully withdrawn", 1, 10000, nil, Withdrawal{Gross: 1, Fee: 1, Remaining: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Withdraw(validYieldFarming(), tt.balance, tt.fraction)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, w)
		})
	}

	for balance := uint64(1); balance <= 25; balance++ {
		for fraction := uint64(1); fraction <= 10000; fraction++ {
			w, err := Withdraw(validYieldFarming(), balance, fraction)
			if err != nil {
				require.ErrorIs(t, err, domain.ErrInvariantViolation, "balance %d fraction %d", balance, fraction)
				continue
			}
			require.Equal(t, balance, w.Gross+w.Remaining, "balance %d fraction %d", balance, fraction)
			require.Equal(t, w.Remaining, w.RemainingA+w.RemainingB, "balance %d fraction %d", balance, fraction)
			if w.Remaining > 0 {
				require.Positive(t, w.RemainingA*w.RemainingB, "balance %d fraction %d", balance, fraction)
			}
		}
	}
}

func TestWithdraw_LiquidStakingPenalty(t *testing.T) {
	p := validLiquidStaking()
	p.CommissionBps = 500
	p.UnstakeDelayEpochs = 10

	w, err := Withdraw(p, 2_000_000_000, 10000)
	require.NoError(t, err)

	assert.Equal(t, uint64(2_000_000_000), w.Gross)
	assert.Equal(t, uint64(110_000_000), w.Fee)
	assert.Equal(t, uint64(1_890_000_000), w.Net)
}

func TestWithdraw_LiquidStakingWithoutCommission(t *testing.T) {
	p := validLiquidStaking()
	p.CommissionBps = 0
	p.UnstakeDelayEpochs = 0

	w, err := Withdraw(p, 2_000_000_000, 10000)
	require.NoError(t, err)
	assert.Equal(t, w.Gross, w.Net)
}

func TestWithdraw_SmallBalancesAreWithdrawable(t *testing.T) {
	for _, p := range []Protocol{validStableLending(), validYieldFarming(), validLiquidStaking()} {
		w, err := Withdraw(p, 5_000_000, 10000)
		require.NoError(t, err)
		assert.Equal(t, uint64(5_000_000), w.Gross)
		assert.Zero(t, w.Remaining)
	}
}

func TestWithdraw_InvalidFraction(t *testing.T) {
	_, err := Withdraw(validStableLending(), 1_000_000_000, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidFraction)

	_, err = Withdraw(validStableLending(), 1_000_000_000, 10001)
	assert.ErrorIs(t, err, domain.ErrInvalidFraction)
}
