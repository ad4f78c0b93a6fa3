package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/scheduler"
)

// checkDatabaseSchedule runs the integrity and WAL check daily at 03:00
const checkDatabaseSchedule = "0 0 3 * * *"

// RegisterJobs creates the background jobs and registers them with sched
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	ranking := scheduler.NewRankingCycleJob(container.RebalancingService, cfg.SchedulerManagers)
	ranking.SetLogger(log.With().Str("job", "ranking_cycle").Logger())

	check := scheduler.NewCheckDatabaseJob(container.LedgerDB)
	check.SetLogger(log.With().Str("job", "check_database").Logger())

	if len(cfg.SchedulerManagers) > 0 {
		if err := sched.AddJob(cfg.RankingSchedule, ranking); err != nil {
			return nil, fmt.Errorf("failed to register ranking cycle job: %w", err)
		}
	} else {
		log.Info().Msg("No scheduler managers configured, ranking cycles run on demand only")
	}
	if err := sched.AddJob(checkDatabaseSchedule, check); err != nil {
		return nil, fmt.Errorf("failed to register check database job: %w", err)
	}

	return &JobInstances{
		RankingCycle:  ranking,
		CheckDatabase: check,
	}, nil
}
