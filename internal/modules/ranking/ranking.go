// Package ranking orders a portfolio's strategies by performance score and
// selects rebalance candidates.
package ranking

import (
	"sort"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/scoring"
	"github.com/aristath/rebalancer/pkg/formulas"
)

// SinglePercentile is assigned when only one strategy is ranked.
const SinglePercentile = 50

// Entry is one strategy's input to a ranking.
type Entry struct {
	StrategyID    domain.Identity
	YieldRateBps  uint32
	VolatilityBps uint16
	Balance       uint64
}

// Ranked is one strategy's position in a ranking.
type Ranked struct {
	StrategyID    domain.Identity `json:"strategy_id"`
	Score         uint16          `json:"score"`
	Percentile    uint8           `json:"percentile"`
	Balance       uint64          `json:"balance"`
	VolatilityBps uint16          `json:"volatility_bps"`
	Candidate     bool            `json:"candidate"`
}

// Result is a complete ranking.
type Result struct {
	Threshold         uint8             `json:"threshold"`
	AverageVolatility uint64            `json:"average_volatility"`
	Rankings          []Ranked          `json:"rankings"`
	Candidates        []domain.Identity `json:"candidates"`
	ScoreStats        formulas.Summary  `json:"score_stats"`
}

// Rank scores every entry from its stored metrics, orders by score descending
// with ties broken by strategy id ascending, and marks the bottom
// floor(n*threshold/100) strategies as candidates.
func Rank(entries []Entry, baseThreshold uint8) Result {
	volatilities := make([]uint16, len(entries))
	rankings := make([]Ranked, len(entries))
	for i, e := range entries {
		volatilities[i] = e.VolatilityBps
		rankings[i] = Ranked{
			StrategyID: e.StrategyID,
			Score: scoring.Score(scoring.Metrics{
				YieldRateBps:  e.YieldRateBps,
				VolatilityBps: e.VolatilityBps,
				Balance:       e.Balance,
			}),
			Balance:       e.Balance,
			VolatilityBps: e.VolatilityBps,
		}
	}

	avgVolatility := scoring.AverageVolatility(volatilities)
	threshold := scoring.DynamicThreshold(baseThreshold, avgVolatility)

	sort.SliceStable(rankings, func(i, j int) bool {
		if rankings[i].Score != rankings[j].Score {
			return rankings[i].Score > rankings[j].Score
		}
		return domain.CompareIdentity(rankings[i].StrategyID, rankings[j].StrategyID) < 0
	})

	n := len(rankings)
	for i := range rankings {
		rankings[i].Percentile = Percentile(i, n)
	}

	candidateCount := CandidateCount(n, threshold)
	candidates := make([]domain.Identity, 0, candidateCount)
	for i := n - candidateCount; i < n; i++ {
		rankings[i].Candidate = true
		candidates = append(candidates, rankings[i].StrategyID)
	}

	scores := make([]uint16, n)
	for i, r := range rankings {
		scores[i] = r.Score
	}

	return Result{
		Threshold:         threshold,
		AverageVolatility: avgVolatility,
		Rankings:          rankings,
		Candidates:        candidates,
		ScoreStats:        formulas.Summarize(formulas.Uint16s(scores)),
	}
}

// Percentile of the strategy at index (0 = best) among n ranked strategies.
func Percentile(index, n int) uint8 {
	if n <= 1 {
		return SinglePercentile
	}
	return uint8((n - 1 - index) * 100 / (n - 1))
}

// CandidateCount is floor(n*threshold/100).
func CandidateCount(n int, threshold uint8) int {
	return n * int(threshold) / 100
}
