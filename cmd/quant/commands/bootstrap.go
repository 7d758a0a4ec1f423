package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/hqm/backend/internal/api/handlers"
	"github.com/wonny/hqm/backend/internal/brain"
	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/internal/external/iex"
	"github.com/wonny/hqm/backend/internal/s0_data"
	"github.com/wonny/hqm/backend/internal/s1_universe"
	"github.com/wonny/hqm/backend/internal/selection"
	"github.com/wonny/hqm/backend/internal/strategyconfig"
	"github.com/wonny/hqm/backend/pkg/config"
	"github.com/wonny/hqm/backend/pkg/database"
	"github.com/wonny/hqm/backend/pkg/logger"
	"github.com/wonny/hqm/backend/pkg/metrics"
	"github.com/wonny/hqm/backend/pkg/redis"
)

const cachePrefix = "hqm"

// app holds the process-wide dependencies every command builds on
// ⭐ SSOT: 커맨드 공통 의존성 조립은 여기서만
type app struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	log      *logger.Logger
	metrics  *metrics.Registry
	db       *database.DB  // nil without DATABASE_URL
	rdb      *redis.Client // disabled unless REDIS_ENABLED
}

// newApp loads .env and the strategy YAML, then connects optional services
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if strategyFile != "" {
		cfg.StrategyConfigPath = strategyFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	strategy, _, err := strategyconfig.Load(cfg.StrategyConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	a := &app{
		cfg:      cfg,
		strategy: strategy,
		log:      log,
		metrics:  metrics.New(),
	}

	db, err := database.New(cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		log.Debug("DATABASE_URL not set, run history disabled")
	case err != nil:
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.db = db
		log.Info("Connected to database")
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb

	return a, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
}

// universeSource picks the CSV file or the PostgreSQL table (universe.source)
func (a *app) universeSource() (contracts.UniverseSource, error) {
	switch a.strategy.Universe.Source {
	case "postgres":
		if a.db == nil {
			return nil, fmt.Errorf("%w: universe.source is postgres but DATABASE_URL is not set", contracts.ErrInvalidArgument)
		}
		return s1_universe.NewRepository(a.db.Pool), nil
	default:
		return s1_universe.NewCSVSource(a.strategy.Universe.Path, a.strategy.Universe.Column), nil
	}
}

// quoteSource returns the IEX client, or a static file when quotesFile is set.
// The provider is wrapped in the Redis batch cache when Redis is enabled.
func (a *app) quoteSource(quotesFile string) (contracts.QuoteSource, error) {
	if quotesFile != "" {
		a.log.WithField("path", quotesFile).Info("Using offline quotes file")
		return s0_data.LoadStaticSource(quotesFile)
	}

	client, err := iex.NewClient(iex.NewHTTPClient(a.cfg, a.rdb, a.log), a.cfg.IEX, a.log)
	if err != nil {
		return nil, err
	}

	if !a.rdb.Enabled() {
		return client, nil
	}
	return s0_data.NewCachedSource(client, redis.NewCache(a.rdb, cachePrefix), a.strategy.Fetch.CacheTTL, a.metrics, a.log), nil
}

// history returns the run repository, nil without a database
func (a *app) history() *selection.Repository {
	if a.db == nil {
		return nil
	}
	return selection.NewRepository(a.db.Pool)
}

// recorder returns the run recorder, nil without a database
func (a *app) recorder() contracts.RunRecorder {
	if repo := a.history(); repo != nil {
		return repo
	}
	return nil
}

// rankingCache returns the Redis-backed latest ranking cache
func (a *app) rankingCache() *brain.RankingCache {
	return brain.NewRankingCache(redis.NewCache(a.rdb, cachePrefix), 0, a.metrics)
}

// pingers lists the services the health check probes
func (a *app) pingers() map[string]handlers.Pinger {
	deps := map[string]handlers.Pinger{}
	if a.db != nil {
		deps["database"] = a.db
	}
	if a.rdb.Enabled() {
		deps["redis"] = a.rdb
	}
	return deps
}

// orchestrator builds the pipeline with the given outputs
func (a *app) orchestrator(quotesFile string, writer contracts.ReportWriter, recorder contracts.RunRecorder) (*brain.Orchestrator, error) {
	universe, err := a.universeSource()
	if err != nil {
		return nil, err
	}
	quotes, err := a.quoteSource(quotesFile)
	if err != nil {
		return nil, err
	}

	return brain.New(a.strategy, brain.Deps{
		Universe: universe,
		Quotes:   quotes,
		Writer:   writer,
		Recorder: recorder,
		Metrics:  a.metrics,
		Logger:   a.log,
	})
}
