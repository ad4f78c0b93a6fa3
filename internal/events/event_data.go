package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PortfolioInitializedData contains data for PortfolioInitialized events
type PortfolioInitializedData struct {
	Portfolio            string `json:"portfolio"`
	Manager              string `json:"manager"`
	Payer                string `json:"payer"`
	BaseThreshold        uint8  `json:"base_threshold"`
	MinRebalanceInterval uint32 `json:"min_rebalance_interval"`
}

// EventType returns the event type for PortfolioInitializedData
func (d *PortfolioInitializedData) EventType() EventType {
	return PortfolioInitialized
}

// StrategyRegisteredData contains data for StrategyRegistered events
type StrategyRegisteredData struct {
	Portfolio      string `json:"portfolio"`
	StrategyID     string `json:"strategy_id"`
	Protocol       string `json:"protocol"`
	InitialBalance uint64 `json:"initial_balance"`
}

// EventType returns the event type for StrategyRegisteredData
func (d *StrategyRegisteredData) EventType() EventType {
	return StrategyRegistered
}

// PerformanceUpdatedData contains data for PerformanceUpdated events
type PerformanceUpdatedData struct {
	Portfolio        string `json:"portfolio"`
	StrategyID       string `json:"strategy_id"`
	YieldRateBps     uint32 `json:"yield_rate_bps"`
	VolatilityBps    uint16 `json:"volatility_bps"`
	Balance          uint64 `json:"balance"`
	PerformanceScore uint16 `json:"performance_score"`
}

// EventType returns the event type for PerformanceUpdatedData
func (d *PerformanceUpdatedData) EventType() EventType {
	return PerformanceUpdated
}

// RankingCycleExecutedData contains data for RankingCycleExecuted events
type RankingCycleExecutedData struct {
	Portfolio         string   `json:"portfolio"`
	CycleID           string   `json:"cycle_id"`
	Strategies        int      `json:"strategies"`
	Threshold         uint8    `json:"threshold"`
	AverageVolatility uint64   `json:"average_volatility"`
	Candidates        []string `json:"candidates"`
}

// EventType returns the event type for RankingCycleExecutedData
func (d *RankingCycleExecutedData) EventType() EventType {
	return RankingCycleExecuted
}

// CapitalExtractedData contains data for CapitalExtracted events
type CapitalExtractedData struct {
	Portfolio  string   `json:"portfolio"`
	Strategies []string `json:"strategies"`
	TotalGross uint64   `json:"total_gross"`
	TotalFees  uint64   `json:"total_fees"`
	TotalNet   uint64   `json:"total_net"`
}

// EventType returns the event type for CapitalExtractedData
func (d *CapitalExtractedData) EventType() EventType {
	return CapitalExtracted
}

// AllocationRecord is one audited allocation
type AllocationRecord struct {
	StrategyID     string `json:"strategy_id"`
	Amount         uint64 `json:"amount"`
	AllocationType string `json:"allocation_type"`
}

// CapitalRedistributedData contains data for CapitalRedistributed events
type CapitalRedistributedData struct {
	Portfolio   string             `json:"portfolio"`
	Allocations []AllocationRecord `json:"allocations"`
	Total       uint64             `json:"total"`
}

// EventType returns the event type for CapitalRedistributedData
func (d *CapitalRedistributedData) EventType() EventType {
	return CapitalRedistributed
}

// EmergencyPausedData contains data for EmergencyPaused events
type EmergencyPausedData struct {
	Portfolio string `json:"portfolio"`
	Manager   string `json:"manager"`
}

// EventType returns the event type for EmergencyPausedData
func (d *EmergencyPausedData) EventType() EventType {
	return EmergencyPaused
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
