package s0_data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
	"github.com/wonny/hqm/backend/pkg/metrics"
)

// AggregatorConfig holds quote aggregation settings
type AggregatorConfig struct {
	BatchSize int                     // symbols per provider request
	Workers   int                     // concurrent batch fetches
	Periods   []contracts.PeriodLabel // periods requested from the provider
}

// DefaultAggregatorConfig returns the provider defaults
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		BatchSize: DefaultBatchSize,
		Workers:   4,
		Periods:   contracts.AllPeriods(),
	}
}

// Aggregator turns a universe into a sealed Snapshot
// ⭐ SSOT: 시세 수집과 스냅샷 봉인은 여기서만
type Aggregator struct {
	source  contracts.QuoteSource
	config  AggregatorConfig
	metrics *metrics.Registry
	logger  *logger.Logger
	now     func() time.Time
}

// NewAggregator creates a new quote aggregator
func NewAggregator(source contracts.QuoteSource, cfg AggregatorConfig, m *metrics.Registry, log *logger.Logger) *Aggregator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if len(cfg.Periods) == 0 {
		cfg.Periods = contracts.AllPeriods()
	}
	return &Aggregator{
		source:  source,
		config:  cfg,
		metrics: m,
		logger:  log.WithComponent("aggregator"),
		now:     time.Now,
	}
}

// Fetch retrieves one batch from the quote source. Tickers the provider
// omitted are simply absent from the result.
func (a *Aggregator) Fetch(ctx context.Context, batchKey string) (map[string]contracts.QuoteFields, error) {
	start := time.Now()
	quotes, err := a.source.FetchBatch(ctx, batchKey, a.config.Periods)
	a.metrics.ObserveBatch(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}
	return quotes, nil
}

// Aggregate fetches every batch concurrently and seals the snapshot once all
// of them joined. The first batch error cancels the rest and aborts.
func (a *Aggregator) Aggregate(ctx context.Context, symbols []string) (*contracts.Snapshot, error) {
	builder := contracts.NewSnapshotBuilder(symbols)
	symbols = builder.Universe()

	batches, err := Batch(symbols, a.config.BatchSize)
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"batches": BatchCount(len(symbols), a.config.BatchSize),
		"workers": a.config.Workers,
	}).Info("Starting quote aggregation")

	var (
		mu      sync.Mutex
		results = make([]map[string]contracts.QuoteFields, 0, BatchCount(len(symbols), a.config.BatchSize))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)

	for group := range batches {
		key := BatchKey(group)
		g.Go(func() error {
			quotes, err := a.Fetch(gctx, key)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, quotes)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.WithError(err).Error("Quote aggregation aborted")
		return nil, err
	}

	// all batches joined: build and seal on this goroutine only
	for _, quotes := range results {
		for ticker, q := range quotes {
			if !builder.Add(ticker, q) {
				a.logger.WithField("ticker", ticker).Debug("Ignoring ticker outside the universe")
			}
		}
	}

	snap, err := builder.Seal(a.now())
	if err != nil {
		return nil, err
	}

	missing := snap.Missing()
	a.metrics.SetMissing(len(missing))
	if len(missing) > 0 {
		a.logger.WithFields(map[string]interface{}{
			"count":   len(missing),
			"tickers": missing,
		}).Warn("Tickers without usable quote data")
	}

	a.logger.WithFields(map[string]interface{}{
		"requested": snap.Requested(),
		"usable":    snap.Len(),
		"missing":   len(missing),
	}).Info("Quote aggregation completed")

	return snap, nil
}
