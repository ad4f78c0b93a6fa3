package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/events"
	"github.com/aristath/rebalancer/internal/metrics"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
)

// InitializeServices creates the event infrastructure, metrics and services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	if cfg.MetricsEnabled {
		container.Metrics = metrics.NewRegistry()
	}

	container.RebalancingService = rebalancing.NewService(
		container.LedgerDB.Conn(),
		container.PortfolioRepo,
		container.StrategyRepo,
		container.EventManager,
		container.Metrics,
		log,
	)
}
