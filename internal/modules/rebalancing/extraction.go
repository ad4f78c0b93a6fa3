package rebalancing

import (
	"context"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/events"
	"github.com/aristath/rebalancer/internal/modules/protocols"
	"github.com/aristath/rebalancer/internal/modules/strategies"
	"github.com/aristath/rebalancer/pkg/fixedpoint"
)

// ExtractCapital withdraws FractionBps of the extractable balance of each
// listed strategy. Protocol fees are lost; the net amount counts toward the
// portfolio's capital moved.
func (s *Service) ExtractCapital(ctx context.Context, call Call, req ExtractCapitalRequest) (*ExtractionResult, error) {
	var result *ExtractionResult
	err := s.execute(ctx, OpExtractCapital, func(repos txRepos) ([]events.EventData, error) {
		if len(req.StrategyIDs) == 0 {
			return nil, domain.ErrEmptyStrategyList
		}
		if len(req.StrategyIDs) > MaxExtractionStrategies {
			return nil, domain.ErrTooManyStrategies
		}
		p, err := loadManaged(ctx, repos, req.Portfolio, call)
		if err != nil {
			return nil, err
		}
		if hasDuplicates(req.StrategyIDs) {
			return nil, domain.ErrDuplicateStrategy
		}
		fraction := req.FractionBps
		if fraction == 0 {
			fraction = DefaultExtractionFraction
		}
		if fraction > fixedpoint.BPS {
			return nil, domain.ErrInvalidFraction
		}

		targets := make([]*strategies.Strategy, len(req.StrategyIDs))
		for i, id := range req.StrategyIDs {
			strategy, err := repos.strategies.Get(ctx, p.Address, id)
			if err != nil {
				return nil, err
			}
			targets[i] = strategy
		}

		res := &ExtractionResult{
			Portfolio:   p.Address,
			Extractions: make([]StrategyExtraction, 0, len(targets)),
		}
		now := s.now()
		for _, strategy := range targets {
			w, err := protocols.Withdraw(strategy.Protocol, strategy.CurrentBalance, fraction)
			if err != nil {
				return nil, err
			}
			withdrawals, err := fixedpoint.Add(strategy.TotalWithdrawals, w.Net)
			if err != nil {
				return nil, domain.ErrBalanceOverflow
			}
			strategy.CurrentBalance = w.Remaining
			strategy.TotalWithdrawals = withdrawals
			strategy.LastUpdated = now
			if err := repos.strategies.Update(ctx, strategy); err != nil {
				return nil, err
			}

			if res.TotalGross, err = fixedpoint.Add(res.TotalGross, w.Gross); err != nil {
				return nil, domain.ErrMathOverflow
			}
			if res.TotalFees, err = fixedpoint.Add(res.TotalFees, w.Fee); err != nil {
				return nil, domain.ErrMathOverflow
			}
			if res.TotalNet, err = fixedpoint.Add(res.TotalNet, w.Net); err != nil {
				return nil, domain.ErrMathOverflow
			}
			res.Extractions = append(res.Extractions, StrategyExtraction{
				StrategyID: strategy.StrategyID,
				Protocol:   strategy.Protocol.Type(),
				Withdrawal: w,
			})
		}

		moved, err := fixedpoint.Add(p.TotalCapitalMoved, res.TotalNet)
		if err != nil {
			return nil, domain.ErrMathOverflow
		}
		p.TotalCapitalMoved = moved
		p.UpdatedAt = now
		if err := repos.portfolios.Update(ctx, p); err != nil {
			return nil, err
		}
		res.TotalCapitalMoved = moved
		result = res

		ids := make([]string, len(req.StrategyIDs))
		for i, id := range req.StrategyIDs {
			ids[i] = id.String()
		}
		return []events.EventData{&events.CapitalExtractedData{
			Portfolio:  p.Address.String(),
			Strategies: ids,
			TotalGross: res.TotalGross,
			TotalFees:  res.TotalFees,
			TotalNet:   res.TotalNet,
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	for _, e := range result.Extractions {
		s.metrics.RecordExtraction(string(e.Protocol), e.Net, e.Fee)
	}
	s.log.Info().
		Str("portfolio", req.Portfolio.String()).
		Int("strategies", len(result.Extractions)).
		Uint64("total_gross", result.TotalGross).
		Uint64("total_fees", result.TotalFees).
		Uint64("total_net", result.TotalNet).
		Msg("Capital extracted")
	return result, nil
}

func hasDuplicates(ids []domain.Identity) bool {
	seen := make(map[domain.Identity]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
