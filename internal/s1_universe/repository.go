package s1_universe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/hqm/backend/internal/contracts"
)

// Repository handles universe persistence in data.universe
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Load implements contracts.UniverseSource: active tickers in import order
func (r *Repository) Load(ctx context.Context) ([]string, error) {
	query := `
		SELECT ticker
		FROM data.universe
		WHERE active = TRUE
		ORDER BY position, ticker
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query universe: %w", err)
	}

	tickers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan universe: %w", err)
	}

	return tickers, nil
}

// Replace makes tickers the active universe in the given order.
// Tickers no longer present are deactivated, not deleted.
func (r *Repository) Replace(ctx context.Context, tickers []string) (int, error) {
	clean, _ := contracts.DedupeTickers(tickers)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE data.universe SET active = FALSE, updated_at = NOW()`); err != nil {
		return 0, fmt.Errorf("deactivate universe: %w", err)
	}

	batch := &pgx.Batch{}
	for i, t := range clean {
		batch.Queue(`
			INSERT INTO data.universe (ticker, active, position, updated_at)
			VALUES ($1, TRUE, $2, NOW())
			ON CONFLICT (ticker) DO UPDATE SET
				active = TRUE,
				position = EXCLUDED.position,
				updated_at = NOW()
		`, t, i)
	}

	br := tx.SendBatch(ctx, batch)
	for range clean {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("upsert universe: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit universe: %w", err)
	}

	return len(clean), nil
}
