package ranking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/rebalancer/internal/domain"
)

func id(s string) domain.Identity {
	return uuid.MustParse(s)
}

func TestRank_OrdersByScoreDescending(t *testing.T) {
	low := id("00000000-0000-0000-0000-00000000000c")
	mid := id("00000000-0000-0000-0000-00000000000b")
	high := id("00000000-0000-0000-0000-00000000000a")

	result := Rank([]Entry{
		{StrategyID: low, YieldRateBps: 3000, VolatilityBps: 8000, Balance: 1_000_000_000},
		{StrategyID: high, YieldRateBps: 15000, VolatilityBps: 2000, Balance: 5_000_000_000},
		{StrategyID: mid, YieldRateBps: 10000, VolatilityBps: 5000, Balance: 2_000_000_000},
	}, 15)

	require.Len(t, result.Rankings, 3)
	assert.Equal(t, high, result.Rankings[0].StrategyID)
	assert.Equal(t, mid, result.Rankings[1].StrategyID)
	assert.Equal(t, low, result.Rankings[2].StrategyID)

	assert.Equal(t, uint16(4700), result.Rankings[0].Score)
	assert.Equal(t, uint16(2600), result.Rankings[1].Score)
	assert.Equal(t, uint16(1020), result.Rankings[2].Score)

	assert.Equal(t, uint8(100), result.Rankings[0].Percentile)
	assert.Equal(t, uint8(50), result.Rankings[1].Percentile)
	assert.Equal(t, uint8(0), result.Rankings[2].Percentile)

	// avg volatility 5000 -> threshold 25 -> floor(3*25/100) = 0 candidates
	assert.Equal(t, uint64(5000), result.AverageVolatility)
	assert.Equal(t, uint8(25), result.Threshold)
	assert.Empty(t, result.Candidates)
	assert.InDelta(t, 2773.33, result.ScoreStats.Mean, 0.01)
}

func TestRank_TieBreakByStrategyID(t *testing.T) {
	a := id("00000000-0000-0000-0000-000000000001")
	b := id("00000000-0000-0000-0000-000000000002")
	c := id("00000000-0000-0000-0000-000000000003")

	entries := []Entry{
		{StrategyID: c, YieldRateBps: 5000, VolatilityBps: 5000, Balance: 1_000_000_000},
		{StrategyID: a, YieldRateBps: 5000, VolatilityBps: 5000, Balance: 1_000_000_000},
		{StrategyID: b, YieldRateBps: 5000, VolatilityBps: 5000, Balance: 1_000_000_000},
	}

	result := Rank(entries, 10)
	assert.Equal(t, []domain.Identity{a, b, c}, []domain.Identity{
		result.Rankings[0].StrategyID,
		result.Rankings[1].StrategyID,
		result.Rankings[2].StrategyID,
	})
}

func TestRank_SelectsBottomCandidates(t *testing.T) {
	entries := make([]Entry, 10)
	for i := range entries {
		entries[i] = Entry{
			StrategyID:    uuid.New(),
			YieldRateBps:  uint32(1000 * (i + 1)),
			VolatilityBps: 10000,
			Balance:       1_000_000_000,
		}
	}

	// base 20 + 10000*20/10000 = 40 -> 4 candidates out of 10
	result := Rank(entries, 20)
	assert.Equal(t, uint8(40), result.Threshold)
	require.Len(t, result.Candidates, 4)

	for i, r := range result.Rankings {
		assert.Equal(t, i >= 6, r.Candidate, "index %d", i)
	}
	assert.Equal(t, entries[0].StrategyID, result.Candidates[3])
}

func TestRank_SingleAndEmpty(t *testing.T) {
	single := Rank([]Entry{{StrategyID: uuid.New(), VolatilityBps: 5000}}, 15)
	require.Len(t, single.Rankings, 1)
	assert.Equal(t, uint8(SinglePercentile), single.Rankings[0].Percentile)
	assert.Empty(t, single.Candidates)

	empty := Rank(nil, 15)
	assert.Empty(t, empty.Rankings)
	assert.Empty(t, empty.Candidates)
	assert.Equal(t, uint64(0), empty.AverageVolatility)
	assert.Equal(t, uint8(15), empty.Threshold)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, uint8(100), Percentile(0, 4))
	assert.Equal(t, uint8(66), Percentile(1, 4))
	assert.Equal(t, uint8(33), Percentile(2, 4))
	assert.Equal(t, uint8(0), Percentile(3, 4))
	assert.Equal(t, uint8(50), Percentile(0, 1))
}

func TestCandidateCount(t *testing.T) {
	assert.Equal(t, 0, CandidateCount(3, 25))
	assert.Equal(t, 1, CandidateCount(4, 25))
	assert.Equal(t, 4, CandidateCount(10, 40))
	assert.Equal(t, 0, CandidateCount(0, 40))
}
