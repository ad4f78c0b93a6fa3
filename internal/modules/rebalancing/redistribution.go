package rebalancing

import (
	"context"
	"errors"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/events"
	"github.com/aristath/rebalancer/internal/modules/strategies"
	"github.com/aristath/rebalancer/pkg/fixedpoint"
)

// RedistributeCapital credits each allocation's amount to its strategy.
// The allocation type is recorded for audit only.
func (s *Service) RedistributeCapital(ctx context.Context, call Call, req RedistributeCapitalRequest) (*RedistributionResult, error) {
	var result *RedistributionResult
	err := s.execute(ctx, OpRedistributeCapital, func(repos txRepos) ([]events.EventData, error) {
		if len(req.Allocations) == 0 {
			return nil, domain.ErrEmptyStrategyList
		}
		if len(req.Allocations) > MaxRedistributionTargets {
			return nil, domain.ErrTooManyStrategies
		}
		p, err := loadManaged(ctx, repos, req.Portfolio, call)
		if err != nil {
			return nil, err
		}

		ids := make([]domain.Identity, len(req.Allocations))
		for i, a := range req.Allocations {
			if a.Amount == 0 || domain.IsZero(a.StrategyID) || !a.AllocationType.Valid() {
				return nil, domain.ErrInvalidAllocation
			}
			ids[i] = a.StrategyID
		}
		if hasDuplicates(ids) {
			return nil, domain.ErrDuplicateStrategy
		}

		targets := make([]*strategies.Strategy, len(req.Allocations))
		for i, a := range req.Allocations {
			strategy, err := repos.strategies.Get(ctx, p.Address, a.StrategyID)
			if errors.Is(err, domain.ErrStrategyNotFound) {
				return nil, domain.ErrInvalidAllocation
			}
			if err != nil {
				return nil, err
			}
			targets[i] = strategy
		}

		var total uint64
		now := s.now()
		records := make([]events.AllocationRecord, len(req.Allocations))
		for i, a := range req.Allocations {
			if a.Amount >= strategies.MaxBalance {
				return nil, domain.ErrBalanceOverflow
			}
			strategy := targets[i]
			if err := creditBalance(strategy, a.Amount); err != nil {
				return nil, err
			}
			strategy.LastUpdated = now
			if err := repos.strategies.Update(ctx, strategy); err != nil {
				return nil, err
			}
			if total, err = fixedpoint.Add(total, a.Amount); err != nil {
				return nil, domain.ErrBalanceOverflow
			}
			records[i] = events.AllocationRecord{
				StrategyID:     a.StrategyID.String(),
				Amount:         a.Amount,
				AllocationType: string(a.AllocationType),
			}
		}

		moved, err := fixedpoint.Add(p.TotalCapitalMoved, total)
		if err != nil {
			return nil, domain.ErrMathOverflow
		}
		p.TotalCapitalMoved = moved
		p.UpdatedAt = now
		if err := repos.portfolios.Update(ctx, p); err != nil {
			return nil, err
		}

		result = &RedistributionResult{
			Portfolio:         p.Address,
			Allocations:       req.Allocations,
			Total:             total,
			TotalCapitalMoved: moved,
		}
		return []events.EventData{&events.CapitalRedistributedData{
			Portfolio:   p.Address.String(),
			Allocations: records,
			Total:       total,
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRedistribution(result.Total)
	s.log.Info().
		Str("portfolio", req.Portfolio.String()).
		Int("allocations", len(result.Allocations)).
		Uint64("total", result.Total).
		Msg("Capital redistributed")
	return result, nil
}
