// Package events provides event management functionality.
package events

import (
	"time"
)

// EventType represents different event types
type EventType string

const (
	PortfolioInitialized EventType = "PORTFOLIO_INITIALIZED"
	StrategyRegistered   EventType = "STRATEGY_REGISTERED"
	PerformanceUpdated   EventType = "PERFORMANCE_UPDATED"
	RankingCycleExecuted EventType = "RANKING_CYCLE_EXECUTED"
	CapitalExtracted     EventType = "CAPITAL_EXTRACTED"
	CapitalRedistributed EventType = "CAPITAL_REDISTRIBUTED"
	EmergencyPaused      EventType = "EMERGENCY_PAUSED"
	ErrorOccurred        EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type the rebalancer emits
var AllTypes = []EventType{
	PortfolioInitialized,
	StrategyRegistered,
	PerformanceUpdated,
	RankingCycleExecuted,
	CapitalExtracted,
	CapitalRedistributed,
	EmergencyPaused,
	ErrorOccurred,
}

// Event represents a system event with typed data
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}
