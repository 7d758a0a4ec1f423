package brain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/internal/s0_data"
	"github.com/wonny/hqm/backend/internal/strategyconfig"
	"github.com/wonny/hqm/backend/pkg/logger"
	"github.com/wonny/hqm/backend/pkg/metrics"
)

type sliceUniverse []string

func (u sliceUniverse) Load(ctx context.Context) ([]string, error) {
	return append([]string(nil), u...), nil
}

type recordingWriter struct {
	mu      sync.Mutex
	reports []*contracts.Report
}

func (w *recordingWriter) Write(ctx context.Context, r *contracts.Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports = append(w.reports, r)
	return nil
}

type recordingRecorder struct {
	runs []*contracts.RunRecord
}

func (r *recordingRecorder) SaveRun(ctx context.Context, run *contracts.RunRecord) error {
	r.runs = append(r.runs, run)
	return nil
}

type failingSource struct{}

func (failingSource) FetchBatch(ctx context.Context, batchKey string, periods []contracts.PeriodLabel) (map[string]contracts.QuoteFields, error) {
	return nil, &contracts.DataSourceError{BatchKey: batchKey, StatusCode: 429, Err: errors.New("slow down")}
}

func q(price float64, returns ...float64) contracts.QuoteFields {
	out := contracts.QuoteFields{Price: price, Returns: map[contracts.PeriodLabel]float64{}}
	for i, r := range returns {
		out.Returns[contracts.AllPeriods()[i]] = r
	}
	return out
}

// six quoted tickers plus one the provider does not know
var (
	testUniverse = sliceUniverse{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG"}
	testQuotes   = map[string]contracts.QuoteFields{
		"AAA": q(10, 0.10, 0.05, 0.02, 0.01),
		"BBB": q(100, 0.50, 0.30, 0.10, 0.04),
		"CCC": q(250, 0.30, 0.25, 0.15, 0.05),
		"DDD": q(50, 0.40, 0.10, 0.05), // no one-month return
		"EEE": q(40, 0.20, 0.20, 0.20, 0.06),
		"FFF": q(5, -0.10, 0.01, 0.01, 0.00),
	}
)

func newTestOrchestrator(t *testing.T, source contracts.QuoteSource, writer contracts.ReportWriter, recorder contracts.RunRecorder) *Orchestrator {
	t.Helper()
	cfg := strategyconfig.Default()
	cfg.Fetch.BatchSize = 2
	cfg.Selection.TopN = 3

	o, err := New(cfg, Deps{
		Universe: testUniverse,
		Quotes:   source,
		Writer:   writer,
		Recorder: recorder,
		Metrics:  metrics.New(),
		Logger:   logger.NewNop(),
	})
	require.NoError(t, err)
	return o
}

func tickers(r *contracts.Report) []string {
	out := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row.Ticker)
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	writer := &recordingWriter{}
	recorder := &recordingRecorder{}
	o := newTestOrchestrator(t, s0_data.NewStaticSource(testQuotes), writer, recorder)

	capitals := map[contracts.Strategy]float64{
		contracts.StrategyPriceReturn: 10000,
		contracts.StrategyHQM:         9000,
	}
	var asked []contracts.Strategy

	result, err := o.Run(context.Background(), RunConfig{
		Strategies: []contracts.Strategy{contracts.StrategyPriceReturn, contracts.StrategyHQM},
		TopN:       3,
		Capital: func(ctx context.Context, s contracts.Strategy) (float64, error) {
			asked = append(asked, s)
			return capitals[s], nil
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Passes, 2)

	assert.Equal(t, []contracts.Strategy{contracts.StrategyPriceReturn, contracts.StrategyHQM}, asked)
	assert.Equal(t, []string{"GGG"}, result.Snapshot.Missing())
	assert.Equal(t, 7, result.Universe.Count())

	// price return: top 3 by one-year return
	pr := result.Passes[0].Report
	assert.Equal(t, []string{"BBB", "DDD", "CCC"}, tickers(pr))
	assert.Equal(t, []int{1, 2, 3}, []int{pr.Rows[0].Rank, pr.Rows[1].Rank, pr.Rows[2].Rank})
	// 10000 / 3 = 3333.33 per position
	assert.Equal(t, []int64{33, 66, 13}, []int64{pr.Rows[0].Shares, pr.Rows[1].Shares, pr.Rows[2].Shares})
	assert.True(t, pr.Trades.WithinBudget())

	// hqm: DDD lacks a period and is excluded under full coverage
	hqm := result.Passes[1].Report
	assert.Equal(t, []string{"BBB", "EEE", "CCC"}, tickers(hqm))
	assert.Contains(t, result.Passes[1].Excluded, "DDD")
	require.NotNil(t, hqm.Rows[0].HQMScore)
	assert.InDelta(t, (1.0+1.0+4.0/6+3.0/5)/4, *hqm.Rows[0].HQMScore, 1e-12)
	assert.Equal(t, []int64{30, 75, 12}, []int64{hqm.Rows[0].Shares, hqm.Rows[1].Shares, hqm.Rows[2].Shares})
	assert.Equal(t, []string{"GGG"}, hqm.Missing)

	// outputs
	require.Len(t, writer.reports, 2)
	require.Len(t, recorder.runs, 2)
	assert.NotEqual(t, recorder.runs[0].RunID, recorder.runs[1].RunID)
	assert.Equal(t, 7, recorder.runs[1].UniverseSize)
	assert.Equal(t, 1, recorder.runs[1].MissingCount)
	assert.Len(t, recorder.runs[1].ConfigHash, 64)

	stages := make([]contracts.Stage, 0, len(result.CompletedStages))
	for _, s := range result.CompletedStages {
		assert.True(t, s.Success, "stage %s", s.Stage)
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, contracts.StageUniverse, stages[0])
	assert.Equal(t, contracts.StageQuotes, stages[1])
	assert.Contains(t, stages, contracts.StageReport)
}

func TestRunAbortsOnDataSourceError(t *testing.T) {
	writer := &recordingWriter{}
	o := newTestOrchestrator(t, failingSource{}, writer, nil)

	result, err := o.Run(context.Background(), RunConfig{
		Strategies: []contracts.Strategy{contracts.StrategyHQM},
		TopN:       3,
		Capital:    FixedCapital(1000),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataSource)
	assert.ErrorIs(t, err, contracts.ErrRateLimited)
	assert.False(t, result.Success)
	assert.Empty(t, writer.reports, "no partial output")
}

func TestRunRejectsBadCapital(t *testing.T) {
	writer := &recordingWriter{}
	o := newTestOrchestrator(t, s0_data.NewStaticSource(testQuotes), writer, nil)

	_, err := o.Run(context.Background(), RunConfig{
		Strategies: []contracts.Strategy{contracts.StrategyHQM},
		TopN:       3,
		Capital:    FixedCapital(0),
	})
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
	assert.Empty(t, writer.reports)
}

func TestRunWritesNothingWhenALaterPassFails(t *testing.T) {
	tests := []struct {
		name    string
		capital CapitalFunc
		wantErr error
	}{
		{
			name: "capital input fails on second pass",
			capital: func(ctx context.Context, s contracts.Strategy) (float64, error) {
				if s == contracts.StrategyHQM {
					return 0, fmt.Errorf("%w: no valid capital after 3 attempts", contracts.ErrInvalidArgument)
				}
				return 10000, nil
			},
			wantErr: contracts.ErrInvalidArgument,
		},
		{
			name: "allocation fails on second pass",
			capital: func(ctx context.Context, s contracts.Strategy) (float64, error) {
				if s == contracts.StrategyHQM {
					return -1, nil
				}
				return 10000, nil
			},
			wantErr: contracts.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &recordingWriter{}
			recorder := &recordingRecorder{}
			o := newTestOrchestrator(t, s0_data.NewStaticSource(testQuotes), writer, recorder)

			result, err := o.Run(context.Background(), RunConfig{
				Strategies: []contracts.Strategy{contracts.StrategyPriceReturn, contracts.StrategyHQM},
				TopN:       3,
				Capital:    tt.capital,
			})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, result.Success)
			assert.Empty(t, result.Passes)
			assert.Empty(t, writer.reports, "first pass report must not be written")
			assert.Empty(t, recorder.runs, "first pass run must not be recorded")
		})
	}
}

func TestRunWritesNothingWhenNoTickerHasFullCoverage(t *testing.T) {
	// every ticker misses the one-month return
	quotes := map[string]contracts.QuoteFields{
		"AAA": q(10, 0.10, 0.05, 0.02),
		"BBB": q(100, 0.50, 0.30, 0.10),
		"CCC": q(250, 0.30, 0.25, 0.15),
	}
	writer := &recordingWriter{}
	recorder := &recordingRecorder{}
	o := newTestOrchestrator(t, s0_data.NewStaticSource(quotes), writer, recorder)

	_, err := o.Run(context.Background(), RunConfig{
		Strategies: []contracts.Strategy{contracts.StrategyPriceReturn, contracts.StrategyHQM},
		TopN:       3,
		Capital:    FixedCapital(1000),
	})

	assert.ErrorIs(t, err, contracts.ErrMissingData)
	assert.Empty(t, writer.reports)
	assert.Empty(t, recorder.runs)
}

func TestRunRequiresStrategy(t *testing.T) {
	o := newTestOrchestrator(t, s0_data.NewStaticSource(testQuotes), nil, nil)

	_, err := o.Run(context.Background(), RunConfig{TopN: 3})
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
}

func TestRankingThenAllocate(t *testing.T) {
	writer := &recordingWriter{}
	o := newTestOrchestrator(t, s0_data.NewStaticSource(testQuotes), writer, nil)

	ranking, err := o.Ranking(context.Background(), contracts.StrategyHQM, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"BBB", "EEE"}, tickers(ranking))
	assert.Nil(t, ranking.Trades)
	assert.Empty(t, writer.reports, "ranking has no side effects")

	allocated, err := o.Allocate(ranking, 1000)
	require.NoError(t, err)
	assert.Equal(t, ranking.RunID, allocated.RunID)
	assert.Equal(t, int64(5), allocated.Rows[0].Shares)
	assert.Equal(t, int64(12), allocated.Rows[1].Shares)
	assert.Nil(t, ranking.Trades, "input report is not modified")

	_, err = o.Allocate(ranking, -1)
	assert.ErrorIs(t, err, contracts.ErrInvalidArgument)
}

func TestRunHonoursCancellation(t *testing.T) {
	o := newTestOrchestrator(t, s0_data.NewStaticSource(testQuotes), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, RunConfig{Strategies: []contracts.Strategy{contracts.StrategyHQM}, TopN: 3})
	assert.ErrorIs(t, err, context.Canceled)
}
