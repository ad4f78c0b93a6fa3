package rebalancing

import (
	"context"
	"sort"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/protocols"
	"github.com/aristath/rebalancer/internal/modules/scoring"
	"github.com/aristath/rebalancer/internal/modules/strategies"
	"github.com/aristath/rebalancer/pkg/fixedpoint"
)

// Plan limits
const (
	MaxSingleStrategyBps   = 4000
	MinSingleStrategyBps   = 100
	PlatformFeeBps         = 50
	ManagerFeeBps          = 150
	RiskToleranceBps       = 8000
	MinRiskMultiplier      = 5000
	MaxRiskMultiplier      = 15000
	TopPerformerPercentile = 75
	MaxTopPerformers       = 5
	TopPerformerSlots      = 3
	MinPlanExtraction      = 100_000_000
	// MinRetainedBalance stays in each underperformer under a plan
	MinRetainedBalance     = 10_000_000
	DustThreshold          = 1_000_000
	EstimatedFeeBps        = 200
	ExpectedImprovementPct = 15
)

// RebalancingPlan is an advisory extraction and redistribution proposal.
// Nothing is executed when a plan is built.
type RebalancingPlan struct {
	Portfolio           domain.Identity   `json:"portfolio"`
	Threshold           uint8             `json:"threshold"`
	ExtractionTargets   []domain.Identity `json:"extraction_targets"`
	TotalToExtract      uint64            `json:"total_to_extract"`
	PlatformFee         uint64            `json:"platform_fee"`
	ManagerFee          uint64            `json:"manager_fee"`
	Allocations         []Allocation      `json:"allocations"`
	EstimatedFees       uint64            `json:"estimated_fees"`
	ExpectedImprovement uint64            `json:"expected_improvement"`
}

// BuildRebalancingPlan proposes moving capital from the portfolio's
// underperformers to its top performers using the last ranking.
func (s *Service) BuildRebalancingPlan(ctx context.Context, call Call, address domain.Identity) (*RebalancingPlan, error) {
	p, err := s.portfolioRepo.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if !p.IsManager(call.Caller) {
		return nil, domain.ErrUnauthorized
	}
	list, err := s.strategyRepo.ListByPortfolio(ctx, address)
	if err != nil {
		return nil, err
	}
	return BuildPlan(p, list)
}

// BuildPlan derives a rebalancing plan from a portfolio and its strategies
func BuildPlan(p *portfolio.Portfolio, list []strategies.Strategy) (*RebalancingPlan, error) {
	if len(list) == 0 {
		return nil, domain.ErrInsufficientStrategies
	}

	volatilities := make([]uint16, len(list))
	for i := range list {
		volatilities[i] = list[i].VolatilityBps
	}
	threshold := scoring.DynamicThreshold(p.BaseThreshold, scoring.AverageVolatility(volatilities))

	var underperformers, top []strategies.Strategy
	for _, strategy := range list {
		if strategy.ShouldRebalance(threshold) {
			underperformers = append(underperformers, strategy)
		}
		if strategy.IsActive() && strategy.PercentileRank >= TopPerformerPercentile {
			top = append(top, strategy)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].PercentileRank != top[j].PercentileRank {
			return top[i].PercentileRank > top[j].PercentileRank
		}
		if top[i].PerformanceScore != top[j].PerformanceScore {
			return top[i].PerformanceScore > top[j].PerformanceScore
		}
		return domain.CompareIdentity(top[i].StrategyID, top[j].StrategyID) < 0
	})
	if len(top) > MaxTopPerformers {
		top = top[:MaxTopPerformers]
	}
	if len(underperformers) == 0 || len(top) == 0 {
		return nil, domain.ErrInsufficientStrategies
	}

	var total uint64
	targets := make([]domain.Identity, len(underperformers))
	for i, strategy := range underperformers {
		var err error
		total, err = fixedpoint.Add(total, fixedpoint.SaturatingSub(strategy.CurrentBalance, MinRetainedBalance))
		if err != nil {
			return nil, domain.ErrMathOverflow
		}
		targets[i] = strategy.StrategyID
	}
	if total <= MinPlanExtraction {
		return nil, domain.ErrInsufficientBalance
	}

	plan := &RebalancingPlan{
		Portfolio:         p.Address,
		Threshold:         threshold,
		ExtractionTargets: targets,
		TotalToExtract:    total,
	}
	if err := allocate(plan, top); err != nil {
		return nil, err
	}

	fees, err := fixedpoint.ApplyBps(total, EstimatedFeeBps)
	if err != nil {
		return nil, domain.ErrMathOverflow
	}
	plan.EstimatedFees = fees
	plan.ExpectedImprovement = expectedImprovement(top)
	return plan, nil
}

// allocate splits the plan's extractable capital across top performers
// weighted by score, within the single-strategy limits and protocol minimums.
func allocate(plan *RebalancingPlan, top []strategies.Strategy) error {
	available := plan.TotalToExtract
	var err error
	if plan.PlatformFee, err = fixedpoint.ApplyBps(available, PlatformFeeBps); err != nil {
		return domain.ErrMathOverflow
	}
	if plan.ManagerFee, err = fixedpoint.ApplyBps(available, ManagerFeeBps); err != nil {
		return domain.ErrMathOverflow
	}
	remaining := fixedpoint.SaturatingSub(available, plan.PlatformFee)
	remaining = fixedpoint.SaturatingSub(remaining, plan.ManagerFee)

	var totalScore uint64
	for _, strategy := range top {
		totalScore += uint64(strategy.PerformanceScore)
	}
	if totalScore == 0 {
		return domain.ErrInvalidPerformanceScore
	}

	maxSingle, err := fixedpoint.ApplyBps(available, MaxSingleStrategyBps)
	if err != nil {
		return domain.ErrMathOverflow
	}
	minSingle, err := fixedpoint.ApplyBps(available, MinSingleStrategyBps)
	if err != nil {
		return domain.ErrMathOverflow
	}

	plan.Allocations = []Allocation{}
	for i, strategy := range top {
		if remaining == 0 {
			break
		}
		amount, err := fixedpoint.MulDiv(remaining, uint64(strategy.PerformanceScore), totalScore)
		if err != nil {
			return domain.ErrMathOverflow
		}
		amount = fixedpoint.Min(amount, maxSingle)
		if amount < minSingle {
			continue
		}
		minimum, err := protocols.MinimumBalance(strategy.Protocol)
		if err != nil {
			return err
		}
		if amount < minimum {
			continue
		}
		if amount, err = fixedpoint.ApplyBps(amount, RiskAdjustment(strategy.VolatilityBps)); err != nil {
			return domain.ErrMathOverflow
		}
		amount = fixedpoint.Min(amount, remaining)
		if amount == 0 {
			continue
		}

		allocationType := AllocationRiskDiversification
		if i < TopPerformerSlots {
			allocationType = AllocationTopPerformer
		}
		plan.Allocations = append(plan.Allocations, Allocation{
			StrategyID:     strategy.StrategyID,
			Amount:         amount,
			AllocationType: allocationType,
		})
		remaining -= amount
	}

	if remaining > DustThreshold {
		for i := range plan.Allocations {
			if plan.Allocations[i].AllocationType != AllocationTopPerformer {
				continue
			}
			amount, err := fixedpoint.Add(plan.Allocations[i].Amount, remaining)
			if err != nil {
				return domain.ErrBalanceOverflow
			}
			plan.Allocations[i].Amount = amount
			break
		}
	}
	return nil
}

// RiskAdjustment is the allocation multiplier in basis points for a
// volatility score: lower volatility earns a larger share.
func RiskAdjustment(volatilityBps uint16) uint64 {
	inverse := fixedpoint.SaturatingSub(fixedpoint.BPS, uint64(volatilityBps))
	multiplier := MinRiskMultiplier + inverse*(MaxRiskMultiplier-MinRiskMultiplier)/fixedpoint.BPS
	return fixedpoint.Min(multiplier*RiskToleranceBps/fixedpoint.BPS, MaxRiskMultiplier)
}

func expectedImprovement(top []strategies.Strategy) uint64 {
	if len(top) == 0 {
		return 0
	}
	var sum uint64
	for _, strategy := range top {
		sum += uint64(strategy.PerformanceScore)
	}
	return sum / uint64(len(top)) * ExpectedImprovementPct / 100
}
