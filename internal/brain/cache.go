package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/metrics"
	"github.com/wonny/hqm/backend/pkg/redis"
)

// RankingCache keeps the latest ranking per strategy and size in Redis.
// The scheduler fills it, the API reads it. A disabled Redis client makes
// every lookup a miss.
type RankingCache struct {
	cache   *redis.Cache
	ttl     time.Duration
	metrics *metrics.Registry
}

// NewRankingCache creates a ranking cache. ttl <= 0 uses redis.TTLRanking.
func NewRankingCache(cache *redis.Cache, ttl time.Duration, m *metrics.Registry) *RankingCache {
	if ttl <= 0 {
		ttl = redis.TTLRanking
	}
	return &RankingCache{cache: cache, ttl: ttl, metrics: m}
}

// Get returns the cached ranking, ok=false on a miss
func (c *RankingCache) Get(ctx context.Context, strategy contracts.Strategy, topN int) (*contracts.Report, bool, error) {
	if c == nil || c.cache == nil {
		return nil, false, nil
	}

	var r contracts.Report
	found, err := c.cache.Get(ctx, rankingKey(strategy, topN), &r)
	c.metrics.RecordCache("ranking", found && err == nil)
	if err != nil || !found {
		return nil, false, err
	}
	return &r, true, nil
}

// Put stores a ranking computed for topN. Reports carrying a trade list are rejected: the
// cache holds capital-independent rankings only.
func (c *RankingCache) Put(ctx context.Context, r *contracts.Report, topN int) error {
	if c == nil || c.cache == nil {
		return nil
	}
	if r.Trades != nil {
		return fmt.Errorf("%w: refusing to cache an allocated report", contracts.ErrInvalidArgument)
	}
	return c.cache.Set(ctx, rankingKey(r.Strategy, topN), r, c.ttl)
}

func rankingKey(strategy contracts.Strategy, topN int) string {
	return redis.RankingKey(fmt.Sprintf("%s:%d", strategy, topN))
}
