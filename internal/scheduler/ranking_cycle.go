package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
)

// RankingExecutor runs ranking cycles
type RankingExecutor interface {
	ExecuteRankingCycle(ctx context.Context, call rebalancing.Call, address domain.Identity) (*rebalancing.RankingResult, error)
}

// RankingCycleJob runs a ranking cycle for each configured manager's
// portfolio, acting as that manager
type RankingCycleJob struct {
	log      zerolog.Logger
	executor RankingExecutor
	managers []domain.Identity
	timeout  time.Duration
}

// NewRankingCycleJob creates a new RankingCycleJob
func NewRankingCycleJob(executor RankingExecutor, managers []domain.Identity) *RankingCycleJob {
	return &RankingCycleJob{
		log:      zerolog.Nop(),
		executor: executor,
		managers: managers,
		timeout:  time.Minute,
	}
}

// SetLogger sets the logger for the job
func (j *RankingCycleJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *RankingCycleJob) Name() string {
	return "ranking_cycle"
}

// Run executes the ranking cycle job. Portfolios that are gated by their
// rebalance interval or paused are skipped quietly.
func (j *RankingCycleJob) Run() error {
	var errs []error
	ranked := 0

	for _, manager := range j.managers {
		address := domain.PortfolioAddress(manager)
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		result, err := j.executor.ExecuteRankingCycle(ctx, rebalancing.Call{Caller: manager}, address)
		cancel()

		switch {
		case err == nil:
			ranked++
			j.log.Debug().
				Str("portfolio", address.String()).
				Str("cycle_id", result.CycleID.String()).
				Msg("Ranking cycle completed")
		case errors.Is(err, domain.ErrRebalanceTooSoon), errors.Is(err, domain.ErrEmergencyPaused):
			j.log.Debug().
				Err(err).
				Str("portfolio", address.String()).
				Msg("Ranking cycle skipped")
		default:
			j.log.Warn().
				Err(err).
				Str("portfolio", address.String()).
				Msg("Ranking cycle failed")
			errs = append(errs, fmt.Errorf("portfolio %s: %w", address, err))
		}
	}

	j.log.Info().
		Int("portfolios", len(j.managers)).
		Int("ranked", ranked).
		Msg("Ranking cycle job completed")
	return errors.Join(errs...)
}
