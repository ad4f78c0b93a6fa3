package strategies

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/protocols"
)

// Repository handles strategy persistence. It runs against the pool by
// default; WithTx binds it to a caller's transaction.
type Repository struct {
	db  database.Querier
	log zerolog.Logger
}

// NewRepository creates a new strategy repository
func NewRepository(db database.Querier, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "strategy").Logger(),
	}
}

// WithTx returns a repository whose statements run inside tx
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx, log: r.log}
}

const strategyColumns = `address, portfolio, strategy_id, protocol, current_balance,
	total_deposits, total_withdrawals, status, yield_rate_bps, volatility_bps,
	performance_score, scored, percentile_rank, last_updated, created_at`

// Create inserts a new strategy. A duplicate strategy id under the same
// portfolio fails with domain.ErrStrategyExists.
func (r *Repository) Create(ctx context.Context, s *Strategy) error {
	blob, err := protocols.Marshal(s.Protocol)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO strategies (`+strategyColumns+`, protocol_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Address.String(),
		s.Portfolio.String(),
		s.StrategyID.String(),
		blob,
		database.FormatAmount(s.CurrentBalance),
		database.FormatAmount(s.TotalDeposits),
		database.FormatAmount(s.TotalWithdrawals),
		string(s.Status),
		s.YieldRateBps,
		s.VolatilityBps,
		s.PerformanceScore,
		database.BoolToInt(s.Scored),
		s.PercentileRank,
		s.LastUpdated,
		s.CreatedAt,
		string(s.Protocol.Type()),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrStrategyExists
		}
		return fmt.Errorf("failed to insert strategy: %w", err)
	}

	r.log.Debug().
		Str("portfolio", s.Portfolio.String()).
		Str("strategy_id", s.StrategyID.String()).
		Msg("Strategy created")
	return nil
}

// Get returns the strategy registered as strategyID under portfolio
func (r *Repository) Get(ctx context.Context, portfolio, strategyID domain.Identity) (*Strategy, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+strategyColumns+" FROM strategies WHERE address = ?",
		domain.StrategyAddress(portfolio, strategyID).String(),
	)
	s, err := scanStrategy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStrategyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get strategy %s: %w", strategyID, err)
	}
	return s, nil
}

// Exists reports whether strategyID is registered under portfolio
func (r *Repository) Exists(ctx context.Context, portfolio, strategyID domain.Identity) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM strategies WHERE address = ?",
		domain.StrategyAddress(portfolio, strategyID).String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check strategy: %w", err)
	}
	return true, nil
}

// ListByPortfolio returns every strategy of portfolio ordered by strategy id
func (r *Repository) ListByPortfolio(ctx context.Context, portfolio domain.Identity) ([]Strategy, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+strategyColumns+" FROM strategies WHERE portfolio = ? ORDER BY strategy_id",
		portfolio.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategies: %w", err)
	}
	defer rows.Close()

	list := []Strategy{}
	for rows.Next() {
		s, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan strategy: %w", err)
		}
		list = append(list, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating strategies: %w", err)
	}
	return list, nil
}

// Update persists balances, metrics and ranking of s. The protocol and
// identity columns are immutable.
func (r *Repository) Update(ctx context.Context, s *Strategy) error {
	result, err := r.db.ExecContext(ctx, `UPDATE strategies SET
		current_balance = ?,
		total_deposits = ?,
		total_withdrawals = ?,
		status = ?,
		yield_rate_bps = ?,
		volatility_bps = ?,
		performance_score = ?,
		scored = ?,
		percentile_rank = ?,
		last_updated = ?
		WHERE address = ?`,
		database.FormatAmount(s.CurrentBalance),
		database.FormatAmount(s.TotalDeposits),
		database.FormatAmount(s.TotalWithdrawals),
		string(s.Status),
		s.YieldRateBps,
		s.VolatilityBps,
		s.PerformanceScore,
		database.BoolToInt(s.Scored),
		s.PercentileRank,
		s.LastUpdated,
		s.Address.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update strategy: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrStrategyNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStrategy(row rowScanner) (*Strategy, error) {
	var (
		s                              Strategy
		address, portfolio, strategyID string
		blob                           []byte
		balance, deposits, withdrawals string
		status                         string
		scored                         int
	)
	err := row.Scan(
		&address,
		&portfolio,
		&strategyID,
		&blob,
		&balance,
		&deposits,
		&withdrawals,
		&status,
		&s.YieldRateBps,
		&s.VolatilityBps,
		&s.PerformanceScore,
		&scored,
		&s.PercentileRank,
		&s.LastUpdated,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if s.Address, err = domain.ParseIdentity(address); err != nil {
		return nil, err
	}
	if s.Portfolio, err = domain.ParseIdentity(portfolio); err != nil {
		return nil, err
	}
	if s.StrategyID, err = domain.ParseIdentity(strategyID); err != nil {
		return nil, err
	}
	if s.Protocol, err = protocols.Unmarshal(blob); err != nil {
		return nil, err
	}
	if s.CurrentBalance, err = database.ParseAmount(balance); err != nil {
		return nil, err
	}
	if s.TotalDeposits, err = database.ParseAmount(deposits); err != nil {
		return nil, err
	}
	if s.TotalWithdrawals, err = database.ParseAmount(withdrawals); err != nil {
		return nil, err
	}
	s.Status = Status(status)
	s.Scored = scored != 0

	return &s, nil
}
