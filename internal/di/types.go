// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/events"
	"github.com/aristath/rebalancer/internal/metrics"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/strategies"
	"github.com/aristath/rebalancer/internal/scheduler"
)

// Container holds all dependencies for the application. It is the single
// source of truth for service instances and is passed to the server.
type Container struct {
	// Databases
	LedgerDB *database.DB

	// Repositories
	PortfolioRepo *portfolio.Repository
	StrategyRepo  *strategies.Repository

	// Infrastructure
	EventBus     *events.Bus
	EventManager *events.Manager
	Metrics      *metrics.Registry

	// Services
	RebalancingService *rebalancing.Service
}

// JobInstances holds the registered background jobs for manual triggering
type JobInstances struct {
	RankingCycle  scheduler.Job
	CheckDatabase scheduler.Job
}

// Close releases the container's databases
func (c *Container) Close() error {
	if c == nil || c.LedgerDB == nil {
		return nil
	}
	return c.LedgerDB.Close()
}
