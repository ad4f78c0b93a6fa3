package rebalancing

import (
	"github.com/google/uuid"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/protocols"
	"github.com/aristath/rebalancer/internal/modules/ranking"
)

// Operation limits
const (
	MaxExtractionStrategies   = 10
	MaxRedistributionTargets  = 20
	DefaultExtractionFraction = 10000
)

// Operation names used for metrics and logs
const (
	OpInitializePortfolio = "initialize_portfolio"
	OpRegisterStrategy    = "register_strategy"
	OpUpdatePerformance   = "update_performance"
	OpRankingCycle        = "ranking_cycle"
	OpExtractCapital      = "extract_capital"
	OpRedistributeCapital = "redistribute_capital"
	OpEmergencyPause      = "emergency_pause"
)

// Call carries the authenticated identity of whoever invokes an operation
type Call struct {
	Caller domain.Identity
}

// InitializePortfolioRequest creates the portfolio owned by Manager
type InitializePortfolioRequest struct {
	Manager              domain.Identity `json:"manager"`
	Payer                domain.Identity `json:"payer"`
	BaseThreshold        uint8           `json:"base_threshold"`
	MinRebalanceInterval uint32          `json:"min_rebalance_interval"`
}

// RegisterStrategyRequest adds a strategy to a portfolio
type RegisterStrategyRequest struct {
	Portfolio      domain.Identity    `json:"portfolio"`
	StrategyID     domain.Identity    `json:"strategy_id"`
	Protocol       protocols.Protocol `json:"-"`
	InitialBalance uint64             `json:"initial_balance"`
}

// UpdatePerformanceRequest reports fresh metrics for one strategy
type UpdatePerformanceRequest struct {
	Portfolio     domain.Identity `json:"portfolio"`
	StrategyID    domain.Identity `json:"strategy_id"`
	YieldRateBps  uint32          `json:"yield_rate_bps"`
	VolatilityBps uint16          `json:"volatility_bps"`
	Balance       uint64          `json:"balance"`
}

// ExtractCapitalRequest withdraws capital from the listed strategies.
// FractionBps of zero means the whole extractable amount.
type ExtractCapitalRequest struct {
	Portfolio   domain.Identity   `json:"portfolio"`
	StrategyIDs []domain.Identity `json:"strategy_ids"`
	FractionBps uint64            `json:"fraction_bps"`
}

// AllocationType labels why capital was sent to a strategy
type AllocationType string

const (
	AllocationTopPerformer        AllocationType = "top_performer"
	AllocationRiskDiversification AllocationType = "risk_diversification"
)

// Valid reports whether t is a known allocation type
func (t AllocationType) Valid() bool {
	return t == AllocationTopPerformer || t == AllocationRiskDiversification
}

// Allocation credits Amount to one strategy
type Allocation struct {
	StrategyID     domain.Identity `json:"strategy_id"`
	Amount         uint64          `json:"amount"`
	AllocationType AllocationType  `json:"allocation_type"`
}

// RedistributeCapitalRequest credits capital to the listed strategies
type RedistributeCapitalRequest struct {
	Portfolio   domain.Identity `json:"portfolio"`
	Allocations []Allocation    `json:"allocations"`
}

// RankingResult is the outcome of one ranking cycle
type RankingResult struct {
	ranking.Result
	CycleID    uuid.UUID       `json:"cycle_id"`
	Portfolio  domain.Identity `json:"portfolio"`
	ExecutedAt int64           `json:"executed_at"`
}

// StrategyExtraction is the withdrawal from one strategy
type StrategyExtraction struct {
	StrategyID domain.Identity `json:"strategy_id"`
	Protocol   protocols.Type  `json:"protocol"`
	protocols.Withdrawal
}

// ExtractionResult totals an extraction across strategies
type ExtractionResult struct {
	Portfolio         domain.Identity      `json:"portfolio"`
	Extractions       []StrategyExtraction `json:"extractions"`
	TotalGross        uint64               `json:"total_gross"`
	TotalFees         uint64               `json:"total_fees"`
	TotalNet          uint64               `json:"total_net"`
	TotalCapitalMoved uint64               `json:"total_capital_moved"`
}

// RedistributionResult echoes the applied allocations
type RedistributionResult struct {
	Portfolio         domain.Identity `json:"portfolio"`
	Allocations       []Allocation    `json:"allocations"`
	Total             uint64          `json:"total"`
	TotalCapitalMoved uint64          `json:"total_capital_moved"`
}
