package portfolio

import (
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/pkg/fixedpoint"
)

// Portfolio configuration limits and defaults
const (
	MinBaseThreshold         = 1
	MaxBaseThreshold         = 50
	MinRebalanceInterval     = 3600
	MaxRebalanceInterval     = 86400
	DefaultPerformanceFeeBps = 200
)

// Portfolio is the per-manager aggregate governing a set of strategies
type Portfolio struct {
	Address              domain.Identity `json:"address"`
	Manager              domain.Identity `json:"manager"`
	BaseThreshold        uint8           `json:"base_threshold"`
	MinRebalanceInterval uint32          `json:"min_rebalance_interval"`
	TotalStrategies      uint32          `json:"total_strategies"`
	TotalCapitalMoved    uint64          `json:"total_capital_moved"`
	EmergencyPause       bool            `json:"emergency_pause"`
	PerformanceFeeBps    uint16          `json:"performance_fee_bps"`
	LastRebalance        int64           `json:"last_rebalance"`
	CreatedAt            int64           `json:"created_at"`
	UpdatedAt            int64           `json:"updated_at"`
}

// ValidateThreshold checks the base threshold range [1, 50]
func ValidateThreshold(threshold uint8) error {
	if threshold < MinBaseThreshold || threshold > MaxBaseThreshold {
		return domain.ErrInvalidThreshold
	}
	return nil
}

// ValidateInterval checks the rebalance interval range [3600, 86400] seconds
func ValidateInterval(interval uint32) error {
	if interval < MinRebalanceInterval || interval > MaxRebalanceInterval {
		return domain.ErrInvalidInterval
	}
	return nil
}

// IsManager reports whether caller controls the portfolio
func (p *Portfolio) IsManager(caller domain.Identity) bool {
	return !domain.IsZero(caller) && caller == p.Manager
}

// NextRebalanceAt is the earliest unix time a ranking cycle may run
func (p *Portfolio) NextRebalanceAt() int64 {
	return fixedpoint.SaturatingAddInt64(p.LastRebalance, int64(p.MinRebalanceInterval))
}
