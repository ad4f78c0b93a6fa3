package rebalancing

import (
	"context"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/events"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/strategies"
)

// InitializePortfolio creates the portfolio at the address derived from the
// manager identity.
func (s *Service) InitializePortfolio(ctx context.Context, req InitializePortfolioRequest) (*portfolio.Portfolio, error) {
	var created *portfolio.Portfolio
	err := s.execute(ctx, OpInitializePortfolio, func(repos txRepos) ([]events.EventData, error) {
		if domain.IsZero(req.Manager) {
			return nil, domain.ErrInvalidManager
		}
		if err := portfolio.ValidateThreshold(req.BaseThreshold); err != nil {
			return nil, err
		}
		if err := portfolio.ValidateInterval(req.MinRebalanceInterval); err != nil {
			return nil, err
		}

		address := domain.PortfolioAddress(req.Manager)
		exists, err := repos.portfolios.Exists(ctx, address)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrPortfolioExists
		}

		now := s.now()
		p := &portfolio.Portfolio{
			Address:              address,
			Manager:              req.Manager,
			BaseThreshold:        req.BaseThreshold,
			MinRebalanceInterval: req.MinRebalanceInterval,
			PerformanceFeeBps:    portfolio.DefaultPerformanceFeeBps,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := repos.portfolios.Create(ctx, p); err != nil {
			return nil, err
		}
		created = p

		return []events.EventData{&events.PortfolioInitializedData{
			Portfolio:            address.String(),
			Manager:              req.Manager.String(),
			Payer:                req.Payer.String(),
			BaseThreshold:        req.BaseThreshold,
			MinRebalanceInterval: req.MinRebalanceInterval,
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("portfolio", created.Address.String()).
		Str("manager", created.Manager.String()).
		Uint8("base_threshold", created.BaseThreshold).
		Uint32("min_rebalance_interval", created.MinRebalanceInterval).
		Msg("Portfolio initialized")
	return created, nil
}

// EmergencyPause halts every state-changing operation on the portfolio.
// Pausing a paused portfolio is a no-op. There is no unpause.
func (s *Service) EmergencyPause(ctx context.Context, call Call, address domain.Identity) (*portfolio.Portfolio, error) {
	var paused *portfolio.Portfolio
	err := s.execute(ctx, OpEmergencyPause, func(repos txRepos) ([]events.EventData, error) {
		p, err := repos.portfolios.GetByAddress(ctx, address)
		if err != nil {
			return nil, err
		}
		if !p.IsManager(call.Caller) {
			return nil, domain.ErrUnauthorized
		}
		paused = p
		if p.EmergencyPause {
			return nil, nil
		}

		p.EmergencyPause = true
		p.UpdatedAt = s.now()
		if err := repos.portfolios.Update(ctx, p); err != nil {
			return nil, err
		}

		return []events.EventData{&events.EmergencyPausedData{
			Portfolio: p.Address.String(),
			Manager:   p.Manager.String(),
		}}, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Warn().Str("portfolio", address.String()).Msg("Portfolio emergency paused")
	return paused, nil
}

// GetPortfolio returns the portfolio at address
func (s *Service) GetPortfolio(ctx context.Context, address domain.Identity) (*portfolio.Portfolio, error) {
	return s.portfolioRepo.GetByAddress(ctx, address)
}

// ListPortfolios returns every portfolio
func (s *Service) ListPortfolios(ctx context.Context) ([]portfolio.Portfolio, error) {
	return s.portfolioRepo.List(ctx)
}

// ListStrategies returns the strategies of the portfolio at address
func (s *Service) ListStrategies(ctx context.Context, address domain.Identity) ([]strategies.Strategy, error) {
	if _, err := s.portfolioRepo.GetByAddress(ctx, address); err != nil {
		return nil, err
	}
	return s.strategyRepo.ListByPortfolio(ctx, address)
}

// GetStrategy returns one strategy of the portfolio at address
func (s *Service) GetStrategy(ctx context.Context, address, strategyID domain.Identity) (*strategies.Strategy, error) {
	return s.strategyRepo.Get(ctx, address, strategyID)
}
