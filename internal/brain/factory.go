package brain

import (
	"fmt"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/internal/portfolio"
	"github.com/wonny/hqm/backend/internal/s0_data"
	"github.com/wonny/hqm/backend/internal/s1_universe"
	"github.com/wonny/hqm/backend/internal/s2_signals"
	"github.com/wonny/hqm/backend/internal/selection"
	"github.com/wonny/hqm/backend/internal/strategyconfig"
	"github.com/wonny/hqm/backend/pkg/logger"
	"github.com/wonny/hqm/backend/pkg/metrics"
)

// Deps are the collaborators an orchestrator is wired to
type Deps struct {
	Universe contracts.UniverseSource
	Quotes   contracts.QuoteSource
	Writer   contracts.ReportWriter // optional
	Recorder contracts.RunRecorder  // optional
	Metrics  *metrics.Registry      // optional
	Logger   *logger.Logger
}

// New builds every stage from a validated strategy configuration
func New(cfg *strategyconfig.Config, deps Deps) (*Orchestrator, error) {
	if deps.Universe == nil || deps.Quotes == nil {
		return nil, fmt.Errorf("%w: universe and quote sources are required", contracts.ErrInvalidArgument)
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	periods := cfg.Periods()

	policy, err := s2_signals.ParseCompositePolicy(cfg.Signals.CompositePolicy)
	if err != nil {
		return nil, err
	}
	signalBuilder, err := s2_signals.NewBuilder(s2_signals.Config{Periods: periods, Policy: policy}, deps.Logger)
	if err != nil {
		return nil, err
	}

	allocator, err := portfolio.NewAllocator(portfolio.AllocatorConfig{
		Weighting: contracts.Weighting(cfg.Portfolio.Weighting),
		Constraints: portfolio.Constraints{
			MaxWeight:   cfg.Portfolio.MaxWeight,
			CashReserve: cfg.Portfolio.CashReserve,
		},
	}, deps.Logger)
	if err != nil {
		return nil, err
	}

	universeBuilder := s1_universe.NewBuilder(deps.Universe, s1_universe.Config{
		Exclude: cfg.Universe.Exclude,
		Limit:   cfg.Universe.Limit,
	}, deps.Logger)

	aggregator := s0_data.NewAggregator(deps.Quotes, s0_data.AggregatorConfig{
		BatchSize: cfg.Fetch.BatchSize,
		Workers:   cfg.Fetch.Workers,
		Periods:   periods,
	}, deps.Metrics, deps.Logger)

	return NewOrchestrator(
		universeBuilder,
		aggregator,
		signalBuilder,
		selection.NewSelector(deps.Logger),
		allocator,
		deps.Writer,
		deps.Recorder,
		hash,
		deps.Metrics,
		deps.Logger,
	), nil
}
