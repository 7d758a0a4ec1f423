package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/hqm/backend/internal/contracts"
)

// Repository handles run history persistence
// ⭐ SSOT: 랭킹 run 기록 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RunSummary is one row of momentum.runs
type RunSummary struct {
	RunID        string             `json:"run_id"`
	Strategy     contracts.Strategy `json:"strategy"`
	ConfigHash   string             `json:"config_hash"`
	UniverseSize int                `json:"universe_size"`
	MissingCount int                `json:"missing_count"`
	TopN         int                `json:"top_n"`
	Capital      *float64           `json:"capital,omitempty"`
	Invested     *float64           `json:"invested,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
}

// SaveRun implements contracts.RunRecorder
func (r *Repository) SaveRun(ctx context.Context, run *contracts.RunRecord) error {
	if run == nil || run.Report == nil {
		return fmt.Errorf("%w: run has no report", contracts.ErrInvalidArgument)
	}

	var capital, invested *float64
	if t := run.Report.Trades; t != nil {
		c, i := t.Capital.InexactFloat64(), t.Invested.InexactFloat64()
		capital, invested = &c, &i
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO momentum.runs (
			run_id, strategy, config_hash, universe_size, missing_count,
			top_n, capital, invested, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		run.RunID, string(run.Strategy), run.ConfigHash, run.UniverseSize, run.MissingCount,
		run.TopN, capital, invested, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, row := range run.Report.Rows {
		var cost float64
		if run.Report.Trades != nil {
			if a, ok := run.Report.Trades.Get(row.Ticker); ok {
				cost = a.Cost.InexactFloat64()
			}
		}
		batch.Queue(`
			INSERT INTO momentum.run_positions (
				run_id, rank, ticker, price, hqm_score,
				return_1y, return_6m, return_3m, return_1m, shares, cost
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			run.RunID, row.Rank, row.Ticker, row.Price, row.HQMScore,
			periodReturn(row.RankedSymbol, contracts.Period1Y),
			periodReturn(row.RankedSymbol, contracts.Period6M),
			periodReturn(row.RankedSymbol, contracts.Period3M),
			periodReturn(row.RankedSymbol, contracts.Period1M),
			row.Shares, cost,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range run.Report.Rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert run position: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT run_id::text, strategy, config_hash, universe_size, missing_count,
			top_n, capital::float8, invested::float8, started_at, finished_at
		FROM momentum.runs
		ORDER BY finished_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunSummary, 0)
	for rows.Next() {
		var s RunSummary
		var strategy string
		if err := rows.Scan(
			&s.RunID, &strategy, &s.ConfigHash, &s.UniverseSize, &s.MissingCount,
			&s.TopN, &s.Capital, &s.Invested, &s.StartedAt, &s.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.Strategy = contracts.Strategy(strategy)
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// GetPositions returns the ranked rows of one run
func (r *Repository) GetPositions(ctx context.Context, runID string) ([]contracts.ReportRow, error) {
	query := `
		SELECT rank, ticker, price::float8, hqm_score,
			return_1y, return_6m, return_3m, return_1m, shares
		FROM momentum.run_positions
		WHERE run_id = $1
		ORDER BY rank ASC
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.ReportRow, 0)
	for rows.Next() {
		var row contracts.ReportRow
		var r1y, r6m, r3m, r1m *float64
		if err := rows.Scan(
			&row.Rank, &row.Ticker, &row.Price, &row.HQMScore,
			&r1y, &r6m, &r3m, &r1m, &row.Shares,
		); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}

		row.Returns = make(map[contracts.PeriodLabel]float64)
		for p, v := range map[contracts.PeriodLabel]*float64{
			contracts.Period1Y: r1y, contracts.Period6M: r6m,
			contracts.Period3M: r3m, contracts.Period1M: r1m,
		} {
			if v != nil {
				row.Returns[p] = *v
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// LatestRun returns the newest run of a strategy
func (r *Repository) LatestRun(ctx context.Context, strategy contracts.Strategy) (*RunSummary, error) {
	query := `
		SELECT run_id::text, strategy, config_hash, universe_size, missing_count,
			top_n, capital::float8, invested::float8, started_at, finished_at
		FROM momentum.runs
		WHERE strategy = $1
		ORDER BY finished_at DESC
		LIMIT 1
	`

	var s RunSummary
	var strat string
	err := r.pool.QueryRow(ctx, query, string(strategy)).Scan(
		&s.RunID, &strat, &s.ConfigHash, &s.UniverseSize, &s.MissingCount,
		&s.TopN, &s.Capital, &s.Invested, &s.StartedAt, &s.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no %s run recorded", contracts.ErrMissingData, strategy)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	s.Strategy = contracts.Strategy(strat)

	return &s, nil
}

func periodReturn(row contracts.RankedSymbol, p contracts.PeriodLabel) *float64 {
	v, ok := row.Returns[p]
	if !ok {
		return nil
	}
	return &v
}
