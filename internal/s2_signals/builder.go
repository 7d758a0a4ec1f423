package s2_signals

import (
	"context"
	"fmt"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

// Config holds signal settings
type Config struct {
	Periods []contracts.PeriodLabel `yaml:"periods"`
	Policy  CompositePolicy         `yaml:"composite_policy"`
}

// DefaultConfig returns all four periods with full coverage
func DefaultConfig() Config {
	return Config{
		Periods: contracts.AllPeriods(),
		Policy:  PolicyFullCoverage,
	}
}

// Builder turns a sealed snapshot into unranked report rows
// ⭐ SSOT: 시그널 생성 오케스트레이션은 여기서만
type Builder struct {
	ranker *PercentileRanker
	scorer *CompositeScorer
	config Config
	logger *logger.Logger
}

// NewBuilder creates a new signal builder
func NewBuilder(cfg Config, log *logger.Logger) (*Builder, error) {
	for _, p := range cfg.Periods {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: unknown period %q", contracts.ErrInvalidArgument, p)
		}
	}

	scorer, err := NewCompositeScorer(cfg.Periods, cfg.Policy)
	if err != nil {
		return nil, err
	}

	return &Builder{
		ranker: NewPercentileRanker(log),
		scorer: scorer,
		config: cfg,
		logger: log.WithComponent("signals"),
	}, nil
}

// Periods returns the configured periods in display order
func (b *Builder) Periods() []contracts.PeriodLabel {
	return b.config.Periods
}

// Build produces one row per snapshot record in universe order.
// For StrategyHQM rows carry percentiles and, when the policy allows, an
// HQM score. For StrategyPriceReturn rows carry raw returns only.
func (b *Builder) Build(ctx context.Context, snap *contracts.Snapshot, strategy contracts.Strategy) ([]contracts.RankedSymbol, error) {
	if err := snap.EnsureSealed(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([]contracts.RankedSymbol, 0, snap.Len())
	for _, rec := range snap.Records() {
		rows = append(rows, contracts.NewRankedSymbol(rec))
	}

	switch strategy {
	case contracts.StrategyPriceReturn:
		b.logger.WithField("rows", len(rows)).Info("Price return rows built")
		return rows, nil
	case contracts.StrategyHQM:
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", contracts.ErrInvalidArgument, strategy)
	}

	table, err := b.ranker.RankSnapshot(snap, b.config.Periods)
	if err != nil {
		return nil, err
	}
	scores := b.scorer.Score(table)

	for i := range rows {
		t := rows[i].Ticker
		if pct, ok := table[t]; ok {
			rows[i].Percentiles = pct
		}
		if s, ok := scores[t]; ok {
			rows[i].HQMScore = &s
		}
	}

	b.logger.WithFields(map[string]interface{}{
		"rows":     len(rows),
		"scored":   len(scores),
		"unscored": len(rows) - len(scores),
		"policy":   string(b.scorer.Policy()),
	}).Info("HQM scores computed")

	return rows, nil
}
