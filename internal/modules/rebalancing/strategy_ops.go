package rebalancing

import (
	"context"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/events"
	"github.com/aristath/rebalancer/internal/modules/protocols"
	"github.com/aristath/rebalancer/internal/modules/scoring"
	"github.com/aristath/rebalancer/internal/modules/strategies"
	"github.com/aristath/rebalancer/pkg/fixedpoint"
)

// RegisterStrategy adds a new strategy holding InitialBalance to the portfolio
func (s *Service) RegisterStrategy(ctx context.Context, call Call, req RegisterStrategyRequest) (*strategies.Strategy, error) {
	var registered *strategies.Strategy
	err := s.execute(ctx, OpRegisterStrategy, func(repos txRepos) ([]events.EventData, error) {
		p, err := loadManaged(ctx, repos, req.Portfolio, call)
		if err != nil {
			return nil, err
		}
		if domain.IsZero(req.StrategyID) {
			return nil, domain.ErrInvalidStrategyID
		}
		if err := protocols.Validate(req.Protocol); err != nil {
			return nil, err
		}
		if err := protocols.CheckMinimumBalance(req.Protocol, req.InitialBalance); err != nil {
			return nil, err
		}
		if err := strategies.ValidateBalance(req.InitialBalance); err != nil {
			return nil, err
		}
		exists, err := repos.strategies.Exists(ctx, p.Address, req.StrategyID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrStrategyExists
		}

		total := uint64(p.TotalStrategies) + 1
		if total > uint64(^uint32(0)) {
			return nil, domain.ErrMathOverflow
		}

		now := s.now()
		strategy := &strategies.Strategy{
			Address:        domain.StrategyAddress(p.Address, req.StrategyID),
			Portfolio:      p.Address,
			StrategyID:     req.StrategyID,
			Protocol:       req.Protocol,
			CurrentBalance: req.InitialBalance,
			TotalDeposits:  req.InitialBalance,
			Status:         strategies.StatusActive,
			VolatilityBps:  strategies.DefaultVolatilityBps,
			PercentileRank: strategies.DefaultPercentileRank,
			LastUpdated:    now,
			CreatedAt:      now,
		}
		if err := repos.strategies.Create(ctx, strategy); err != nil {
			return nil, err
		}

		p.TotalStrategies = uint32(total)
		p.UpdatedAt = now
		if err := repos.portfolios.Update(ctx, p); err != nil {
			return nil, err
		}
		registered = strategy

		return []events.EventData{&events.StrategyRegisteredData{
			Portfolio:      p.Address.String(),
			StrategyID:     req.StrategyID.String(),
			Protocol:       string(req.Protocol.Type()),
			InitialBalance: req.InitialBalance,
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("portfolio", req.Portfolio.String()).
		Str("strategy_id", req.StrategyID.String()).
		Str("protocol", protocols.Name(req.Protocol)).
		Uint64("initial_balance", req.InitialBalance).
		Msg("Strategy registered")
	return registered, nil
}

// UpdatePerformance stores reported metrics and the recomputed score.
// A balance above total deposits is booked as accrued yield.
func (s *Service) UpdatePerformance(ctx context.Context, call Call, req UpdatePerformanceRequest) (*strategies.Strategy, error) {
	var updated *strategies.Strategy
	err := s.execute(ctx, OpUpdatePerformance, func(repos txRepos) ([]events.EventData, error) {
		p, err := loadManaged(ctx, repos, req.Portfolio, call)
		if err != nil {
			return nil, err
		}
		if req.YieldRateBps > scoring.MaxYieldRateBps {
			return nil, domain.ErrExcessiveYieldRate
		}
		if req.VolatilityBps > scoring.MaxVolatilityBps {
			return nil, domain.ErrInvalidVolatilityScore
		}
		if err := strategies.ValidateBalance(req.Balance); err != nil {
			return nil, err
		}
		strategy, err := repos.strategies.Get(ctx, p.Address, req.StrategyID)
		if err != nil {
			return nil, err
		}

		strategy.YieldRateBps = req.YieldRateBps
		strategy.VolatilityBps = req.VolatilityBps
		strategy.CurrentBalance = req.Balance
		if req.Balance > strategy.TotalDeposits {
			strategy.TotalDeposits = req.Balance
		}
		strategy.PerformanceScore = scoring.Score(scoring.Metrics{
			YieldRateBps:  req.YieldRateBps,
			VolatilityBps: req.VolatilityBps,
			Balance:       req.Balance,
		})
		strategy.Scored = true
		strategy.LastUpdated = s.now()
		if err := repos.strategies.Update(ctx, strategy); err != nil {
			return nil, err
		}
		updated = strategy

		return []events.EventData{&events.PerformanceUpdatedData{
			Portfolio:        p.Address.String(),
			StrategyID:       req.StrategyID.String(),
			YieldRateBps:     req.YieldRateBps,
			VolatilityBps:    req.VolatilityBps,
			Balance:          req.Balance,
			PerformanceScore: strategy.PerformanceScore,
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("strategy_id", req.StrategyID.String()).
		Uint16("performance_score", updated.PerformanceScore).
		Msg("Performance updated")
	return updated, nil
}

// creditBalance adds amount to the strategy's balance and deposits
func creditBalance(strategy *strategies.Strategy, amount uint64) error {
	balance, err := fixedpoint.Add(strategy.CurrentBalance, amount)
	if err != nil {
		return domain.ErrBalanceOverflow
	}
	deposits, err := fixedpoint.Add(strategy.TotalDeposits, amount)
	if err != nil {
		return domain.ErrBalanceOverflow
	}
	strategy.CurrentBalance = balance
	strategy.TotalDeposits = deposits
	return nil
}
