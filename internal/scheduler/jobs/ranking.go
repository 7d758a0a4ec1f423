package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/hqm/backend/internal/brain"
	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

// Runner runs the pipeline (implemented by brain.Orchestrator)
type Runner interface {
	Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error)
}

// RankingRefreshJob recomputes the rankings after the close and stores them
// in the ranking cache the API reads from.
// ⭐ SSOT: 랭킹 갱신 스케줄은 이 Job에서만
type RankingRefreshJob struct {
	runner     Runner
	cache      *brain.RankingCache
	strategies []contracts.Strategy
	topN       int
	schedule   string
	logger     *logger.Logger
}

// NewRankingRefreshJob creates a refresh job for the given strategies
func NewRankingRefreshJob(
	runner Runner,
	cache *brain.RankingCache,
	strategies []contracts.Strategy,
	topN int,
	schedule string,
	log *logger.Logger,
) *RankingRefreshJob {
	return &RankingRefreshJob{
		runner:     runner,
		cache:      cache,
		strategies: strategies,
		topN:       topN,
		schedule:   schedule,
		logger:     log,
	}
}

// Name returns the job name
func (j *RankingRefreshJob) Name() string {
	return "ranking_refresh"
}

// Schedule returns the cron schedule (meta.refresh_cron)
func (j *RankingRefreshJob) Schedule() string {
	return j.schedule
}

// Run fetches one snapshot, ranks every strategy and caches the results.
// No capital is involved: the passes stop after selection.
func (j *RankingRefreshJob) Run(ctx context.Context) error {
	if len(j.strategies) == 0 {
		return fmt.Errorf("%w: no strategy to refresh", contracts.ErrInvalidArgument)
	}

	j.logger.WithFields(map[string]interface{}{
		"strategies": j.strategies,
		"top_n":      j.topN,
	}).Info("Starting scheduled ranking refresh")

	result, err := j.runner.Run(ctx, brain.RunConfig{
		Strategies: j.strategies,
		TopN:       j.topN,
	})
	if err != nil {
		return fmt.Errorf("ranking refresh: %w", err)
	}

	for _, pass := range result.Passes {
		if err := j.cache.Put(ctx, pass.Report, j.topN); err != nil {
			return fmt.Errorf("cache %s ranking: %w", pass.Strategy, err)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"passes":   len(result.Passes),
		"missing":  len(result.Snapshot.Missing()),
		"duration": result.Duration,
	}).Info("Ranking refresh completed")

	return nil
}
