// Package rebalancing implements the portfolio operations: initialization,
// strategy registration, performance reporting, ranking cycles and the
// movement of capital between strategies.
package rebalancing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/events"
	"github.com/aristath/rebalancer/internal/metrics"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/strategies"
)

const moduleName = "rebalancing"

// Service orchestrates every state-changing portfolio operation. Each call
// runs in a single immediate-mode transaction; events are emitted only after
// the transaction commits.
type Service struct {
	db            *sql.DB
	portfolioRepo *portfolio.Repository
	strategyRepo  *strategies.Repository
	eventManager  *events.Manager
	metrics       *metrics.Registry
	clock         func() time.Time
	log           zerolog.Logger
}

// NewService creates a new rebalancing service
func NewService(
	db *sql.DB,
	portfolioRepo *portfolio.Repository,
	strategyRepo *strategies.Repository,
	eventManager *events.Manager,
	metricsRegistry *metrics.Registry,
	log zerolog.Logger,
) *Service {
	return &Service{
		db:            db,
		portfolioRepo: portfolioRepo,
		strategyRepo:  strategyRepo,
		eventManager:  eventManager,
		metrics:       metricsRegistry,
		clock:         time.Now,
		log:           log.With().Str("service", "rebalancing").Logger(),
	}
}

// SetClock replaces the time source used for timestamps and interval gating
func (s *Service) SetClock(clock func() time.Time) {
	s.clock = clock
}

func (s *Service) now() int64 {
	return s.clock().Unix()
}

// txRepos are the repositories bound to one transaction
type txRepos struct {
	portfolios *portfolio.Repository
	strategies *strategies.Repository
}

// execute runs fn in a transaction, records the outcome and emits the
// collected events once the transaction has committed.
func (s *Service) execute(ctx context.Context, operation string, fn func(repos txRepos) ([]events.EventData, error)) error {
	timer := s.metrics.StartOperation(operation)

	var emitted []events.EventData
	err := database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		emitted, err = fn(txRepos{
			portfolios: s.portfolioRepo.WithTx(tx),
			strategies: s.strategyRepo.WithTx(tx),
		})
		return err
	})
	if err != nil {
		err = classify(err)
		if domain.KindOf(err) == domain.KindInternal {
			timer.Stop(metrics.ResultError)
			s.log.Error().Err(err).Str("operation", operation).Msg("Operation failed")
			if s.eventManager != nil {
				s.eventManager.EmitError(moduleName, err, map[string]interface{}{"operation": operation})
			}
		} else {
			timer.Stop(metrics.ResultRejected)
			s.log.Debug().Err(err).Str("operation", operation).Msg("Operation rejected")
		}
		return err
	}

	timer.Stop(metrics.ResultSuccess)
	if s.eventManager != nil {
		for _, data := range emitted {
			s.eventManager.EmitTyped(moduleName, data)
		}
	}
	return nil
}

// classify maps lock contention onto the retryable domain error
func classify(err error) error {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if database.IsBusy(err) {
		return domain.ErrConcurrentUpdate
	}
	return err
}

// loadManaged fetches the portfolio and checks the caller controls it and
// that it is not paused.
func loadManaged(ctx context.Context, repos txRepos, address domain.Identity, call Call) (*portfolio.Portfolio, error) {
	p, err := repos.portfolios.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if !p.IsManager(call.Caller) {
		return nil, domain.ErrUnauthorized
	}
	if p.EmergencyPause {
		return nil, domain.ErrEmergencyPaused
	}
	return p, nil
}
