// Package strategies holds strategy records and their persistence.
package strategies

import (
	"encoding/json"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/protocols"
)

// Status is the lifecycle state of a strategy
type Status string

const (
	StatusActive     Status = "active"
	StatusPaused     Status = "paused"
	StatusDeprecated Status = "deprecated"
)

// Defaults and limits
const (
	DefaultVolatilityBps  = 5000
	DefaultPercentileRank = 50
	// MaxBalance is the exclusive upper bound for a reported or initial balance.
	MaxBalance = ^uint64(0) / 1000
	// MinRebalanceBalance is the smallest balance worth moving.
	MinRebalanceBalance uint64 = 50_000_000
)

// Strategy is a single tracked capital position
type Strategy struct {
	Address          domain.Identity    `json:"address"`
	Portfolio        domain.Identity    `json:"portfolio"`
	StrategyID       domain.Identity    `json:"strategy_id"`
	Protocol         protocols.Protocol `json:"-"`
	CurrentBalance   uint64             `json:"current_balance"`
	TotalDeposits    uint64             `json:"total_deposits"`
	TotalWithdrawals uint64             `json:"total_withdrawals"`
	Status           Status             `json:"status"`
	YieldRateBps     uint32             `json:"yield_rate_bps"`
	VolatilityBps    uint16             `json:"volatility_bps"`
	PerformanceScore uint16             `json:"performance_score"`
	Scored           bool               `json:"scored"`
	PercentileRank   uint8              `json:"percentile_rank"`
	LastUpdated      int64              `json:"last_updated"`
	CreatedAt        int64              `json:"created_at"`
}

// IsActive reports whether the strategy takes part in rebalancing
func (s *Strategy) IsActive() bool {
	return s.Status == StatusActive
}

// ShouldRebalance reports whether s is an extraction candidate under the
// given dynamic threshold
func (s *Strategy) ShouldRebalance(threshold uint8) bool {
	return s.IsActive() &&
		s.CurrentBalance >= MinRebalanceBalance &&
		s.PercentileRank < threshold
}

// ValidateBalance rejects balances at or above MaxBalance
func ValidateBalance(balance uint64) error {
	if balance >= MaxBalance {
		return domain.ErrBalanceOverflow
	}
	return nil
}

// MarshalJSON adds the tagged protocol descriptor and its display name
func (s Strategy) MarshalJSON() ([]byte, error) {
	type plain Strategy
	return json.Marshal(struct {
		plain
		Protocol     protocols.Descriptor `json:"protocol"`
		ProtocolName string               `json:"protocol_name"`
	}{
		plain:        plain(s),
		Protocol:     protocols.Describe(s.Protocol),
		ProtocolName: protocols.Name(s.Protocol),
	})
}
