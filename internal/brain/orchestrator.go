package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/internal/portfolio"
	"github.com/wonny/hqm/backend/internal/s0_data"
	"github.com/wonny/hqm/backend/internal/s1_universe"
	"github.com/wonny/hqm/backend/internal/s2_signals"
	"github.com/wonny/hqm/backend/internal/selection"
	"github.com/wonny/hqm/backend/pkg/logger"
	"github.com/wonny/hqm/backend/pkg/metrics"
)

// Orchestrator coordinates the ranking and allocation pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
//
// S0 → S1 → S2 → S3 → S4 → S5, single pass, no retry: any stage error aborts.
type Orchestrator struct {
	// Stage components
	universeBuilder *s1_universe.Builder
	aggregator      *s0_data.Aggregator
	signalBuilder   *s2_signals.Builder
	selector        *selection.Selector
	allocator       *portfolio.Allocator

	// Outputs (optional)
	writer   contracts.ReportWriter
	recorder contracts.RunRecorder

	configHash string
	metrics    *metrics.Registry
	logger     *logger.Logger
}

// CapitalFunc supplies the capital for one allocation pass.
// It is called once per strategy, after that strategy's selection is known.
type CapitalFunc func(ctx context.Context, strategy contracts.Strategy) (float64, error)

// FixedCapital uses the same amount for every pass
func FixedCapital(amount float64) CapitalFunc {
	return func(context.Context, contracts.Strategy) (float64, error) {
		return amount, nil
	}
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Strategies []contracts.Strategy
	TopN       int
	Capital    CapitalFunc // nil skips S4: ranking only
}

// PassResult is one strategy's output within a run
type PassResult struct {
	Strategy contracts.Strategy `json:"strategy"`
	Report   *contracts.Report  `json:"report"`
	Excluded []string           `json:"excluded,omitempty"` // rows without a score

	startedAt time.Time
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	Success         bool                       `json:"success"`
	Error           error                      `json:"-"`
	CompletedStages []contracts.PipelineResult `json:"completed_stages"`
	Universe        *s1_universe.Universe      `json:"universe"`
	Snapshot        *contracts.Snapshot        `json:"-"`
	Passes          []PassResult               `json:"passes"`
	Duration        time.Duration              `json:"duration"`
}

// NewOrchestrator creates a new orchestrator. writer and recorder may be nil.
func NewOrchestrator(
	universeBuilder *s1_universe.Builder,
	aggregator *s0_data.Aggregator,
	signalBuilder *s2_signals.Builder,
	selector *selection.Selector,
	allocator *portfolio.Allocator,
	writer contracts.ReportWriter,
	recorder contracts.RunRecorder,
	configHash string,
	m *metrics.Registry,
	logger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		universeBuilder: universeBuilder,
		aggregator:      aggregator,
		signalBuilder:   signalBuilder,
		selector:        selector,
		allocator:       allocator,
		writer:          writer,
		recorder:        recorder,
		configHash:      configHash,
		metrics:         m,
		logger:          logger.WithComponent("orchestrator"),
	}
}

// Run executes the pipeline. The snapshot is fetched once and shared by every
// strategy pass. Each pass selects and allocates on its own run ID; reports are
// written and runs recorded only after every pass succeeded.
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	return o.run(ctx, config, outputs{writer: o.writer, recorder: o.recorder})
}

// outputs are the side effects of a pass
type outputs struct {
	writer   contracts.ReportWriter
	recorder contracts.RunRecorder
}

func (o *Orchestrator) run(ctx context.Context, config RunConfig, out outputs) (*RunResult, error) {
	startTime := time.Now()

	result := &RunResult{
		CompletedStages: make([]contracts.PipelineResult, 0, len(contracts.AllStages())),
	}

	if len(config.Strategies) == 0 {
		result.Error = fmt.Errorf("%w: no strategy requested", contracts.ErrInvalidArgument)
		return result, result.Error
	}

	o.logger.WithFields(map[string]interface{}{
		"strategies": config.Strategies,
		"top_n":      config.TopN,
		"allocate":   config.Capital != nil,
	}).Info("Starting pipeline run")

	// S0: Universe
	universe, err := o.runUniverse(ctx, result)
	if err != nil {
		result.Error = fmt.Errorf("S0 failed: %w", err)
		return result, result.Error
	}
	result.Universe = universe

	// S1: Quotes → sealed snapshot
	snap, err := o.runQuotes(ctx, result, universe.Tickers)
	if err != nil {
		result.Error = fmt.Errorf("S1 failed: %w", err)
		return result, result.Error
	}
	result.Snapshot = snap

	// S2 → S4 for every strategy before anything is written
	passes := make([]*PassResult, 0, len(config.Strategies))
	for _, strategy := range config.Strategies {
		pass, err := o.runPass(ctx, result, snap, strategy, config)
		if err != nil {
			o.metrics.RecordRun(string(strategy), err)
			result.Error = fmt.Errorf("%s pass failed: %w", strategy, err)
			return result, result.Error
		}
		passes = append(passes, pass)
	}

	// S5 + run history
	for _, pass := range passes {
		err := o.publish(ctx, result, pass, snap, config, out)
		o.metrics.RecordRun(string(pass.Strategy), err)
		if err != nil {
			result.Error = fmt.Errorf("%s pass failed: %w", pass.Strategy, err)
			return result, result.Error
		}
		result.Passes = append(result.Passes, *pass)
	}

	result.Success = true
	result.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"passes":   len(result.Passes),
		"duration": result.Duration,
	}).Info("Pipeline run completed")

	return result, nil
}

// Ranking runs S0-S3 for one strategy without allocation or outputs.
// It backs the API.
func (o *Orchestrator) Ranking(ctx context.Context, strategy contracts.Strategy, topN int) (*contracts.Report, error) {
	res, err := o.run(ctx, RunConfig{Strategies: []contracts.Strategy{strategy}, TopN: topN}, outputs{})
	if err != nil {
		return nil, err
	}
	return res.Passes[0].Report, nil
}

// Allocate runs S4 for an existing selection and attaches the trade list to a
// copy of the report
func (o *Orchestrator) Allocate(report *contracts.Report, capital float64) (*contracts.Report, error) {
	if report == nil {
		return nil, fmt.Errorf("%w: no ranking to allocate", contracts.ErrInvalidArgument)
	}

	selected := make([]contracts.RankedSymbol, 0, len(report.Rows))
	for _, row := range report.Rows {
		selected = append(selected, row.RankedSymbol)
	}

	timer := o.metrics.StartStage(string(contracts.StagePortfolio))
	trades, err := o.allocator.Allocate(selected, capital)
	timer.Stop(resultLabel(err))
	if err != nil {
		return nil, err
	}

	out := contracts.NewReport(report.RunID, report.Strategy, report.Periods, report.AsOf, selected, trades)
	out.Missing = report.Missing
	return out, nil
}

func (o *Orchestrator) runUniverse(ctx context.Context, result *RunResult) (*s1_universe.Universe, error) {
	start := time.Now()
	timer := o.metrics.StartStage(string(contracts.StageUniverse))

	universe, err := o.universeBuilder.Build(ctx)
	timer.Stop(resultLabel(err))

	stage := contracts.PipelineResult{Stage: contracts.StageUniverse, Duration: time.Since(start).Milliseconds()}
	if err != nil {
		stage.Error = err.Error()
		result.CompletedStages = append(result.CompletedStages, stage)
		return nil, err
	}

	stage.Success = true
	stage.InputCount = universe.Loaded
	stage.OutputCount = universe.Count()
	result.CompletedStages = append(result.CompletedStages, stage)

	return universe, nil
}

func (o *Orchestrator) runQuotes(ctx context.Context, result *RunResult, tickers []string) (*contracts.Snapshot, error) {
	start := time.Now()
	timer := o.metrics.StartStage(string(contracts.StageQuotes))

	snap, err := o.aggregator.Aggregate(ctx, tickers)
	timer.Stop(resultLabel(err))

	stage := contracts.PipelineResult{Stage: contracts.StageQuotes, InputCount: len(tickers), Duration: time.Since(start).Milliseconds()}
	if err != nil {
		stage.Error = err.Error()
		result.CompletedStages = append(result.CompletedStages, stage)
		return nil, err
	}

	stage.Success = true
	stage.OutputCount = snap.Len()
	result.CompletedStages = append(result.CompletedStages, stage)

	return snap, nil
}

// runPass executes S2 → S4 for one strategy. It has no side effects.
func (o *Orchestrator) runPass(ctx context.Context, result *RunResult, snap *contracts.Snapshot, strategy contracts.Strategy, config RunConfig) (*PassResult, error) {
	startedAt := time.Now()
	runID := uuid.NewString()

	// S2: Signals
	timer := o.metrics.StartStage(string(contracts.StageSignals))
	rows, err := o.signalBuilder.Build(ctx, snap, strategy)
	timer.Stop(resultLabel(err))
	o.record(result, contracts.StageSignals, snap.Len(), len(rows), startedAt, err)
	if err != nil {
		return nil, fmt.Errorf("S2 failed: %w", err)
	}

	// S3: Selection
	stageStart := time.Now()
	timer = o.metrics.StartStage(string(contracts.StageSelection))
	selected, err := o.selector.Select(rows, scoreKey(strategy), config.TopN)
	timer.Stop(resultLabel(err))
	selectedCount := 0
	if selected != nil {
		selectedCount = len(selected.Rows)
	}
	o.record(result, contracts.StageSelection, len(rows), selectedCount, stageStart, err)
	if err != nil {
		return nil, fmt.Errorf("S3 failed: %w", err)
	}
	if len(selected.Rows) == 0 {
		err := fmt.Errorf("%w: no ticker has a %s score", contracts.ErrMissingData, scoreKey(strategy))
		return nil, fmt.Errorf("S3 failed: %w", err)
	}

	// S4: Portfolio
	var trades *contracts.TradeList
	if config.Capital != nil {
		capital, err := config.Capital(ctx, strategy)
		if err != nil {
			return nil, fmt.Errorf("capital input: %w", err)
		}

		stageStart = time.Now()
		timer = o.metrics.StartStage(string(contracts.StagePortfolio))
		trades, err = o.allocator.Allocate(selected.Rows, capital)
		timer.Stop(resultLabel(err))
		o.record(result, contracts.StagePortfolio, len(selected.Rows), len(selected.Rows), stageStart, err)
		if err != nil {
			return nil, fmt.Errorf("S4 failed: %w", err)
		}
	}

	report := contracts.NewReport(runID, strategy, o.signalBuilder.Periods(), snap.AsOf(), selected.Rows, trades)
	report.Missing = snap.Missing()

	return &PassResult{
		Strategy:  strategy,
		Report:    report,
		Excluded:  selected.Excluded,
		startedAt: startedAt,
	}, nil
}

// publish writes a finished pass (S5) and records it in the run history
func (o *Orchestrator) publish(ctx context.Context, result *RunResult, pass *PassResult, snap *contracts.Snapshot, config RunConfig, out outputs) error {
	report := pass.Report
	log := o.logger.WithFields(map[string]interface{}{
		"run_id":   report.RunID,
		"strategy": pass.Strategy,
	})

	// S5: Report
	if out.writer != nil {
		stageStart := time.Now()
		timer := o.metrics.StartStage(string(contracts.StageReport))
		err := out.writer.Write(ctx, report)
		timer.Stop(resultLabel(err))
		o.record(result, contracts.StageReport, len(report.Rows), len(report.Rows), stageStart, err)
		if err != nil {
			return fmt.Errorf("S5 failed: %w", err)
		}
	}

	if out.recorder != nil {
		run := &contracts.RunRecord{
			RunID:        report.RunID,
			Strategy:     pass.Strategy,
			ConfigHash:   o.configHash,
			UniverseSize: snap.Requested(),
			MissingCount: len(report.Missing),
			TopN:         config.TopN,
			StartedAt:    pass.startedAt,
			FinishedAt:   time.Now(),
			Report:       report,
		}
		if err := out.recorder.SaveRun(ctx, run); err != nil {
			// run history is best-effort: the report is already written
			log.WithError(err).Warn("Failed to save run history")
		}
	}

	log.WithFields(map[string]interface{}{
		"selected": len(report.Rows),
		"excluded": len(pass.Excluded),
	}).Info("Strategy pass completed")

	return nil
}

func (o *Orchestrator) record(result *RunResult, stage contracts.Stage, in, out int, start time.Time, err error) {
	r := contracts.PipelineResult{
		Stage:       stage,
		Success:     err == nil,
		InputCount:  in,
		OutputCount: out,
		Duration:    time.Since(start).Milliseconds(),
	}
	if err != nil {
		r.Error = err.Error()
	}
	result.CompletedStages = append(result.CompletedStages, r)
}

// scoreKey is the selection key for a strategy
func scoreKey(strategy contracts.Strategy) contracts.ScoreKey {
	if strategy == contracts.StrategyPriceReturn {
		return contracts.ReturnKey(contracts.Period1Y)
	}
	return contracts.ScoreHQM
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
