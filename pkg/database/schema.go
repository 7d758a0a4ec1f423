package database

import (
	"context"
	"fmt"
)

// schemaStatements creates the universe table and the run history tables.
// Statements are idempotent.
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS data`,
	`CREATE SCHEMA IF NOT EXISTS momentum`,
	`CREATE TABLE IF NOT EXISTS data.universe (
		ticker      TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		sector      TEXT NOT NULL DEFAULT '',
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		position    INTEGER NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS momentum.runs (
		run_id        UUID PRIMARY KEY,
		strategy      TEXT NOT NULL,
		config_hash   TEXT NOT NULL,
		universe_size INTEGER NOT NULL,
		missing_count INTEGER NOT NULL,
		top_n         INTEGER NOT NULL,
		capital       NUMERIC(20, 2),
		invested      NUMERIC(20, 2),
		started_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS momentum.run_positions (
		run_id      UUID NOT NULL REFERENCES momentum.runs(run_id) ON DELETE CASCADE,
		rank        INTEGER NOT NULL,
		ticker      TEXT NOT NULL,
		price       NUMERIC(20, 4) NOT NULL,
		hqm_score   DOUBLE PRECISION,
		return_1y   DOUBLE PRECISION,
		return_6m   DOUBLE PRECISION,
		return_3m   DOUBLE PRECISION,
		return_1m   DOUBLE PRECISION,
		shares      BIGINT NOT NULL DEFAULT 0,
		cost        NUMERIC(20, 2) NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, rank)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_strategy_finished
		ON momentum.runs (strategy, finished_at DESC)`,
}

// EnsureSchema creates the tables used by the universe and run repositories
func (db *DB) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
