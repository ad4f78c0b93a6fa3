package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/domain"
)

// Repository handles portfolio persistence. It runs against the pool by
// default; WithTx binds it to a caller's transaction.
type Repository struct {
	db  database.Querier
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db database.Querier, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// WithTx returns a repository whose statements run inside tx
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx, log: r.log}
}

const portfolioColumns = `address, manager, base_threshold, min_rebalance_interval,
	total_strategies, total_capital_moved, emergency_pause, performance_fee_bps,
	last_rebalance, created_at, updated_at`

// Create inserts a new portfolio. A second portfolio for the same manager
// fails with domain.ErrPortfolioExists.
func (r *Repository) Create(ctx context.Context, p *Portfolio) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO portfolios (`+portfolioColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Address.String(),
		p.Manager.String(),
		p.BaseThreshold,
		p.MinRebalanceInterval,
		p.TotalStrategies,
		database.FormatAmount(p.TotalCapitalMoved),
		database.BoolToInt(p.EmergencyPause),
		p.PerformanceFeeBps,
		p.LastRebalance,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrPortfolioExists
		}
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}

	r.log.Debug().Str("address", p.Address.String()).Msg("Portfolio created")
	return nil
}

// Exists reports whether a portfolio is stored at address
func (r *Repository) Exists(ctx context.Context, address domain.Identity) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM portfolios WHERE address = ?", address.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check portfolio: %w", err)
	}
	return true, nil
}

// GetByAddress returns the portfolio at address or domain.ErrPortfolioNotFound
func (r *Repository) GetByAddress(ctx context.Context, address domain.Identity) (*Portfolio, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+portfolioColumns+" FROM portfolios WHERE address = ?", address.String())
	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio %s: %w", address, err)
	}
	return p, nil
}

// GetByManager returns the portfolio owned by manager
func (r *Repository) GetByManager(ctx context.Context, manager domain.Identity) (*Portfolio, error) {
	return r.GetByAddress(ctx, domain.PortfolioAddress(manager))
}

// List returns all portfolios ordered by creation time
func (r *Repository) List(ctx context.Context) ([]Portfolio, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+portfolioColumns+" FROM portfolios ORDER BY created_at, address")
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := []Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}
	return portfolios, nil
}

// Update persists the mutable portfolio fields. Manager, configuration and
// creation time are immutable and never written.
func (r *Repository) Update(ctx context.Context, p *Portfolio) error {
	result, err := r.db.ExecContext(ctx, `UPDATE portfolios SET
		total_strategies = ?,
		total_capital_moved = ?,
		emergency_pause = ?,
		last_rebalance = ?,
		updated_at = ?
		WHERE address = ?`,
		p.TotalStrategies,
		database.FormatAmount(p.TotalCapitalMoved),
		database.BoolToInt(p.EmergencyPause),
		p.LastRebalance,
		p.UpdatedAt,
		p.Address.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrPortfolioNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(row rowScanner) (*Portfolio, error) {
	var (
		p                Portfolio
		address, manager string
		capitalMoved     string
		emergencyPause   int
	)
	err := row.Scan(
		&address,
		&manager,
		&p.BaseThreshold,
		&p.MinRebalanceInterval,
		&p.TotalStrategies,
		&capitalMoved,
		&emergencyPause,
		&p.PerformanceFeeBps,
		&p.LastRebalance,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Address, err = domain.ParseIdentity(address); err != nil {
		return nil, err
	}
	if p.Manager, err = domain.ParseIdentity(manager); err != nil {
		return nil, err
	}
	if p.TotalCapitalMoved, err = database.ParseAmount(capitalMoved); err != nil {
		return nil, err
	}
	p.EmergencyPause = emergencyPause != 0

	return &p, nil
}
