package di

import (
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/strategies"
)

// InitializeRepositories creates the repositories over the container's database
func InitializeRepositories(container *Container, log zerolog.Logger) {
	conn := container.LedgerDB.Conn()
	container.PortfolioRepo = portfolio.NewRepository(conn, log)
	container.StrategyRepo = strategies.NewRepository(conn, log)
}
