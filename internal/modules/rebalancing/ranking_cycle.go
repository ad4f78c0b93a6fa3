package rebalancing

import (
	"context"

	"github.com/google/uuid"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/events"
	"github.com/aristath/rebalancer/internal/modules/ranking"
)

// ExecuteRankingCycle re-scores every strategy of the portfolio, assigns
// percentiles and marks the bottom of the ranking as rebalance candidates.
// Cycles are gated by the portfolio's minimum rebalance interval.
func (s *Service) ExecuteRankingCycle(ctx context.Context, call Call, address domain.Identity) (*RankingResult, error) {
	var result *RankingResult
	err := s.execute(ctx, OpRankingCycle, func(repos txRepos) ([]events.EventData, error) {
		p, err := loadManaged(ctx, repos, address, call)
		if err != nil {
			return nil, err
		}
		now := s.now()
		if now < p.NextRebalanceAt() {
			return nil, domain.ErrRebalanceTooSoon
		}

		list, err := repos.strategies.ListByPortfolio(ctx, p.Address)
		if err != nil {
			return nil, err
		}
		entries := make([]ranking.Entry, len(list))
		for i, strategy := range list {
			entries[i] = ranking.Entry{
				StrategyID:    strategy.StrategyID,
				YieldRateBps:  strategy.YieldRateBps,
				VolatilityBps: strategy.VolatilityBps,
				Balance:       strategy.CurrentBalance,
			}
		}
		ranked := ranking.Rank(entries, p.BaseThreshold)

		byID := make(map[domain.Identity]int, len(list))
		for i := range list {
			byID[list[i].StrategyID] = i
		}
		for _, r := range ranked.Rankings {
			strategy := &list[byID[r.StrategyID]]
			strategy.PerformanceScore = r.Score
			strategy.Scored = true
			strategy.PercentileRank = r.Percentile
			strategy.LastUpdated = now
			if err := repos.strategies.Update(ctx, strategy); err != nil {
				return nil, err
			}
		}

		p.LastRebalance = now
		p.UpdatedAt = now
		if err := repos.portfolios.Update(ctx, p); err != nil {
			return nil, err
		}

		result = &RankingResult{
			Result:     ranked,
			CycleID:    uuid.New(),
			Portfolio:  p.Address,
			ExecutedAt: now,
		}

		candidates := make([]string, len(ranked.Candidates))
		for i, id := range ranked.Candidates {
			candidates[i] = id.String()
		}
		return []events.EventData{&events.RankingCycleExecutedData{
			Portfolio:         p.Address.String(),
			CycleID:           result.CycleID.String(),
			Strategies:        len(ranked.Rankings),
			Threshold:         ranked.Threshold,
			AverageVolatility: ranked.AverageVolatility,
			Candidates:        candidates,
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRanking(address.String(), result.Threshold, len(result.Candidates))
	s.log.Info().
		Str("portfolio", address.String()).
		Str("cycle_id", result.CycleID.String()).
		Int("strategies", len(result.Rankings)).
		Uint8("threshold", result.Threshold).
		Int("candidates", len(result.Candidates)).
		Float64("mean_score", result.ScoreStats.Mean).
		Msg("Ranking cycle executed")
	return result, nil
}
