package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/database"
)

// InitializeDatabases opens the ledger database and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// ledger profile: every committed balance change must survive a crash
	ledgerDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    "rebalancer",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rebalancer database: %w", err)
	}

	if err := ledgerDB.Migrate(); err != nil {
		ledgerDB.Close()
		return nil, fmt.Errorf("failed to migrate rebalancer database: %w", err)
	}
	container.LedgerDB = ledgerDB

	log.Info().Str("path", ledgerDB.Path()).Msg("Database initialized")
	return container, nil
}
